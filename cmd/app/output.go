package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func printEvents(items []eventResult) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.UID, item.Name, item.CoupleName, item.Date, item.Status})
	}
	printTable([]string{"UID", "NAME", "COUPLE", "DATE", "STATUS"}, rows)
}

func printEvent(item eventResult) {
	printKV([][2]string{
		{"uid", item.UID},
		{"name", item.Name},
		{"couple", item.CoupleName},
		{"date", item.Date},
		{"status", item.Status},
	})
}

func printSessions(items []sessionResult) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.UID, orDash(item.Email), formatTime(item.ExpiresAt), formatTime(item.CreatedAt)})
	}
	printTable([]string{"UID", "EMAIL", "EXPIRES_AT", "CREATED_AT"}, rows)
}

func printSession(item sessionResult) {
	printKV([][2]string{
		{"uid", item.UID},
		{"email", orDash(item.Email)},
		{"expires_at", formatTime(item.ExpiresAt)},
	})
}

func printSessionCheck(item sessionCheckResult) {
	printKV([][2]string{
		{"uid", item.Session.UID},
		{"active", fmt.Sprintf("%t", item.Active)},
		{"remaining_minutes", fmt.Sprintf("%d", item.RemainingMinutes)},
		{"remaining_seconds", fmt.Sprintf("%d", item.RemainingSeconds)},
		{"expires_at", formatTime(item.Session.ExpiresAt)},
	})
}

func printPhotos(items []photoResult) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.UID, item.Kind, item.URL, formatTime(item.CreatedAt)})
	}
	printTable([]string{"UID", "KIND", "URL", "CREATED_AT"}, rows)
}
