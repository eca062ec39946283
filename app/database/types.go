package database

import (
	"time"
)

type FetchStatus string

const (
	FetchStatusOK     FetchStatus = "ok"
	FetchStatusEmpty  FetchStatus = "empty"
	FetchStatusFailed FetchStatus = "failed"
)

type Feed struct {
	Name          string // Config name, or the URL for feeds given on the command line
	FeedURL       string
	Title         string // Feed's own <title>, as of the last successful fetch
	LastStatus    FetchStatus
	LastError     string
	ItemsFound    int // Entries seen in the last fetch
	ItemsAdded    int // Posts written from the last fetch
	TotalAdded    int // Posts written over all runs
	LastFetchedAt *time.Time
	LastSuccessAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FetchRecord is the outcome of processing one feed during a run.
type FetchRecord struct {
	Name       string
	FeedURL    string
	Title      string
	Status     FetchStatus
	Error      string
	ItemsFound int
	ItemsAdded int
	FetchedAt  time.Time
}

type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	FeedsTotal  int
	FeedsFailed int
	PostsAdded  int
	PostsTotal  int
	Error       string
}
