// fileissue builds a prefilled new-issue URL for a flagged accessibility rule and optionally opens it.
//
//	fileissue --service gitHub --setting repository=https://github.com/org/repo --details issue.json --open
package main

import (
	"context"
	"os"

	"github.com/pkg/browser"

	"accessibility-insights/background/internal/issuefiling"
)

func main() {
	opener := issuefiling.OpenerFunc(func(ctx context.Context, url string) error {
		return browser.OpenURL(url)
	})
	if err := newRootCmd(issuefiling.DefaultProvider(), opener).Execute(); err != nil {
		os.Exit(1)
	}
}
