package version

// Version is overridden at build time with -ldflags "-X github.com/bnema/studentgym/internal/version.Version=...".
var Version = "dev"

func UserAgent() string {
	return "sgym/" + Version
}
