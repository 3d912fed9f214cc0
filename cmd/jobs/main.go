package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"appforge/internal/domain"
	"appforge/internal/sqlinline"
)

// jobs is the operator tool for the generation queue: inspect jobs by
// status and requeue RUNNING jobs abandoned by a crashed worker. It speaks
// plain database/sql so it runs anywhere with a DATABASE_URL, no service
// required.
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		fatal("open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	switch os.Args[1] {
	case "list":
		listCmd(db, os.Args[2:])
	case "requeue-stuck":
		requeueCmd(db, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  jobs list [-status QUEUED|RUNNING|COMPLETED|FAILED]
  jobs requeue-stuck [-age 10m]`)
}

func listCmd(db *sql.DB, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", string(domain.JobStatusQueued), "job status to list")
	_ = fs.Parse(args)

	normalized := domain.JobStatus(strings.ToUpper(*status))
	switch normalized {
	case domain.JobStatusQueued, domain.JobStatusRunning, domain.JobStatusCompleted, domain.JobStatusFailed:
	default:
		fatal("unknown status %q", *status)
	}

	rows, err := db.Query(sqlinline.QListJobsByStatus, string(normalized))
	if err != nil {
		fatal("list jobs: %v", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	count := 0
	for rows.Next() {
		var id, projectID, jobStatus string
		var progress int
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &projectID, &jobStatus, &progress, &createdAt, &updatedAt); err != nil {
			fatal("scan row: %v", err)
		}
		fmt.Printf("%s  %-9s  %3d%%  project=%s  created=%s  updated=%s\n",
			id, jobStatus, progress, projectID,
			createdAt.Format(time.RFC3339), updatedAt.Format(time.RFC3339))
		count++
	}
	if err := rows.Err(); err != nil {
		fatal("iterate rows: %v", err)
	}
	fmt.Printf("%d job(s)\n", count)
}

func requeueCmd(db *sql.DB, args []string) {
	fs := flag.NewFlagSet("requeue-stuck", flag.ExitOnError)
	age := fs.Duration("age", 10*time.Minute, "requeue RUNNING jobs not updated for this long")
	_ = fs.Parse(args)

	cutoff := time.Now().Add(-*age)
	rows, err := db.Query(sqlinline.QRequeueStuckJobs, cutoff)
	if err != nil {
		fatal("requeue: %v", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	count := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			fatal("scan row: %v", err)
		}
		fmt.Printf("requeued %s\n", id)
		count++
	}
	if err := rows.Err(); err != nil {
		fatal("iterate rows: %v", err)
	}
	fmt.Printf("%d job(s) requeued\n", count)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
