package fetch

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform identifies a job board.
type Platform string

// Known job boards.
const (
	PlatformLinkedIn   Platform = "linkedin"
	PlatformIndeed     Platform = "indeed"
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformUnknown    Platform = "unknown"
)

// board describes how postings are laid out on one job board.
type board struct {
	platform Platform
	hosts    []string // host suffixes
	content  []string // description containers, best first
	noise    []string // removed before extraction
	// rendered boards build the description client-side, so the static
	// HTML is never worth extracting.
	rendered bool
}

var boards = []board{
	{
		platform: PlatformLinkedIn,
		hosts:    []string{"linkedin.com"},
		content: []string{
			".show-more-less-html__markup",
			".description__text",
			".jobs-description__content",
			".jobs-box__html-content",
		},
		noise: []string{
			".top-card-layout__cta-container",
			".similar-jobs",
			".people-also-viewed",
			".sign-in-modal",
			".contextual-sign-in-modal",
			".show-more-less-html__button",
		},
	},
	{
		platform: PlatformIndeed,
		hosts:    []string{"indeed.com", "indeed.co.uk", "indeed.ca", "indeed.de", "indeed.fr"},
		content:  []string{"#jobDescriptionText", ".jobsearch-JobComponent-description"},
		noise:    []string{"#jobsearch-ViewJobButtons-container", ".jobsearch-CompanyReview"},
	},
	{
		platform: PlatformGreenhouse,
		hosts:    []string{"greenhouse.io"},
		content:  []string{".job__description", ".job-post-content", "#content"},
		noise:    []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section"},
	},
	{
		platform: PlatformLever,
		hosts:    []string{"lever.co"},
		content:  []string{".posting-page .section-wrapper", ".posting-description", ".content"},
		noise:    []string{".posting-apply", ".lever-application-form", ".postings-btn-wrapper"},
	},
	{
		platform: PlatformWorkday,
		hosts:    []string{"myworkdayjobs.com", "workday.com"},
		content:  []string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']"},
		noise:    []string{"[data-automation-id='applyButton']", "[data-automation-id='similarJobs']"},
		rendered: true,
	},
	{
		platform: PlatformAshby,
		hosts:    []string{"ashbyhq.com"},
		content:  []string{"._descriptionText", "[class*='description']"},
		rendered: true,
	},
}

// commonNoise is removed from every page regardless of board.
var commonNoise = []string{
	"nav", "header", "footer", "script", "style", "noscript", "iframe", "svg",
	"form",
	".apply-button-container", "[data-testid='application-form']",
	".eeo-statement", ".voluntary-disclosure", ".self-identification",
	".social-share", ".share-buttons",
	".cookie-banner", ".cookie-consent", ".gdpr-notice",
}

// genericContent is tried on unknown boards and after a board's own selectors.
var genericContent = []string{
	".job-description",
	"#job-description",
	"[data-testid='job-description']",
	".job-details",
	".posting-content",
	"main",
	"article",
	"#content",
}

func lookupBoard(host string) *board {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	for i := range boards {
		for _, suffix := range boards[i].hosts {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return &boards[i]
			}
		}
	}
	return nil
}

// DetectPlatform identifies the job board hosting urlStr.
func DetectPlatform(urlStr string) Platform {
	u, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	if b := lookupBoard(u.Hostname()); b != nil {
		return b.platform
	}
	return PlatformUnknown
}

// ContentSelectors returns the description selectors for a platform,
// followed by the generic ones.
func ContentSelectors(p Platform) []string {
	var out []string
	for _, b := range boards {
		if b.platform == p {
			out = append(out, b.content...)
		}
	}
	return append(out, genericContent...)
}

// NoiseSelectors returns what to strip from a platform's pages.
func NoiseSelectors(p Platform) []string {
	out := append([]string(nil), commonNoise...)
	for _, b := range boards {
		if b.platform == p {
			out = append(out, b.noise...)
		}
	}
	return out
}

// RendersClientSide reports whether a platform's descriptions only exist
// after JavaScript runs.
func RendersClientSide(p Platform) bool {
	for _, b := range boards {
		if b.platform == p {
			return b.rendered
		}
	}
	return false
}

var (
	linkedInViewID = regexp.MustCompile(`^/jobs/view/(?:[^/]*-)?(\d+)/?$`)
	trackingParam  = regexp.MustCompile(`^(utm_.*|ref|refid|trackingid|trk|src|source|gh_src|lever-source.*)$`)
)

// Canonical rewrites a posting URL to one stable form so that the same job
// shared through search results, collections or tracking links maps to a
// single cache entry. LinkedIn links resolve to /jobs/view/<id>/ and
// tracking parameters are dropped everywhere. Unparseable input is returned
// unchanged.
func Canonical(urlStr string) string {
	u, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil || u.Host == "" {
		return urlStr
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)

	if b := lookupBoard(u.Hostname()); b != nil && b.platform == PlatformLinkedIn {
		if id := linkedInJobID(u); id != "" {
			return "https://www.linkedin.com/jobs/view/" + id + "/"
		}
	}

	q := u.Query()
	for key := range q {
		if trackingParam.MatchString(strings.ToLower(key)) {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func linkedInJobID(u *url.URL) string {
	if m := linkedInViewID.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	if id := u.Query().Get("currentJobId"); id != "" && strings.Trim(id, "0123456789") == "" {
		return id
	}
	return ""
}
