package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func Full() string {
	return fmt.Sprintf("slides %s, commit %s, built at %s", Version, Commit, Date)
}
