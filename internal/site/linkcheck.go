package site

import (
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// LinkIssue is an internal link in a generated page whose target does not
// exist in the output tree.
type LinkIssue struct {
	Page   string // page path relative to the output root
	Target string // the broken href/src value
}

// VerifyLinks walks the generated site and checks that every internal link
// resolves to a file. External links (with a scheme or host) are skipped.
func VerifyLinks(outDir string) ([]LinkIssue, error) {
	var issues []LinkIssue
	err := filepath.WalkDir(outDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}
		pageIssues, err := verifyPage(outDir, p)
		if err != nil {
			return err
		}
		issues = append(issues, pageIssues...)
		return nil
	})
	return issues, err
}

func verifyPage(outDir, pagePath string) ([]LinkIssue, error) {
	f, err := os.Open(pagePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}

	relPage, err := filepath.Rel(outDir, pagePath)
	if err != nil {
		relPage = pagePath
	}

	var issues []LinkIssue
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				if attr.Key != "href" && attr.Key != "src" {
					continue
				}
				if target := attr.Val; isInternal(target) && !targetExists(outDir, pagePath, target) {
					issues = append(issues, LinkIssue{Page: relPage, Target: target})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return issues, nil
}

func isInternal(target string) bool {
	if target == "" || strings.HasPrefix(target, "#") {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

func targetExists(outDir, pagePath, target string) bool {
	// Drop query and fragment.
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}

	var candidate string
	if strings.HasPrefix(target, "/") {
		candidate = filepath.Join(outDir, filepath.FromSlash(path.Clean(target)))
	} else {
		candidate = filepath.Join(filepath.Dir(pagePath), filepath.FromSlash(target))
	}

	info, err := os.Stat(candidate)
	if err != nil {
		return false
	}
	if info.IsDir() {
		// Directory links resolve through their index page.
		_, err := os.Stat(filepath.Join(candidate, "index.html"))
		return err == nil
	}
	return true
}
