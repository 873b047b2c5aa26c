package build

// Set via -ldflags "-X github.com/hubtools/space-restart/build.Version=..."
var (
	Version   = "0.0.0-dev"
	GitCommit = "0000000000000000000000000000000000000000"
)

func ShortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}
