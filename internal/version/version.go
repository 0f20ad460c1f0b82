package version

import "fmt"

// Заполняются при сборке:
// -ldflags "-X github.com/vladislavdragonenkov/crm/internal/version.version=v1.2.3 ..."
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info returns version information populated via -ldflags.
func Info() (v, c, d string) { return version, commit, date }

func GetVersion() string { return version }

func GetCommit() string { return commit }

func GetDate() string { return date }

func String() string {
	return fmt.Sprintf("crm-service version=%s commit=%s date=%s", version, commit, date)
}
