package database

type FeedRepository interface {
	RecordFetch(record FetchRecord) error
	GetFeed(feedName string) (*Feed, error)
	GetFeeds() ([]Feed, error)
	GetFeedCount() (int, error)
}

type RunRepository interface {
	RecordRun(run Run) error
	GetLastRun() (*Run, error)
	GetRunCount() (int, error)
}
