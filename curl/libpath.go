package curl

import (
	"os"
	"runtime"
)

// envLibrary overrides the library search entirely when set.
const envLibrary = "CURLEW_LIBCURL"

// libraryCandidates returns the dlopen names to try, in order. The
// impersonate builds come first; stock libcurl still provides everything
// except Impersonate.
func libraryCandidates() []string {
	if path := os.Getenv(envLibrary); path != "" {
		return []string{path}
	}

	switch runtime.GOOS {
	case "windows":
		return []string{
			"libcurl-impersonate-chrome.dll",
			"libcurl-impersonate.dll",
			"libcurl.dll",
		}
	case "darwin":
		return []string{
			"libcurl-impersonate-chrome.dylib",
			"libcurl-impersonate.dylib",
			"libcurl.4.dylib",
			"libcurl.dylib",
		}
	default:
		return []string{
			"libcurl-impersonate-chrome.so",
			"libcurl-impersonate.so",
			"libcurl.so.4",
			"libcurl.so",
		}
	}
}
