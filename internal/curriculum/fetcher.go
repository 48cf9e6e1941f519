package curriculum

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/graduation-audit/internal/fetch"
	"github.com/jonathan/graduation-audit/internal/logging"
	"github.com/jonathan/graduation-audit/internal/types"
)

// DefaultBaseURL is the curriculum information system.
const DefaultBaseURL = "https://ebs.duzce.edu.tr"

// DefaultProgramID identifies the program whose curriculum is audited.
const DefaultProgramID = 14

// Session cookie names handed out by the curriculum service.
const (
	CookieLoadBalancer = "cookiesession1"
	CookieSession      = "ASP.NET_SessionId"
)

// Protocol step names, used in error and log context.
const (
	StepLoadProgram   = "load-program"
	StepSelectYear    = "select-year"
	StepReloadProgram = "reload-program"
)

// yearSelector matches the academic-year dropdown options.
const yearSelector = "select#BolognaYil option"

// Source retrieves curriculum page HTML for an academic-year label.
type Source interface {
	FetchCurriculum(ctx context.Context, yearLabel string) (string, error)
}

// Session carries the cookies established between protocol steps.
type Session struct {
	LoadBalancer string
	SessionID    string
}

// Cookies returns the session state as request cookies.
func (s Session) Cookies() []*http.Cookie {
	var cookies []*http.Cookie
	if s.LoadBalancer != "" {
		cookies = append(cookies, &http.Cookie{Name: CookieLoadBalancer, Value: s.LoadBalancer})
	}
	if s.SessionID != "" {
		cookies = append(cookies, &http.Cookie{Name: CookieSession, Value: s.SessionID})
	}
	return cookies
}

// FetcherConfig configures the curriculum fetcher.
type FetcherConfig struct {
	BaseURL   string
	ProgramID int
	Fetch     *fetch.Options
	Logger    *zap.Logger
}

// Fetcher implements Source against the curriculum information system.
type Fetcher struct {
	baseURL   string
	programID int
	client    *fetch.Client
	logger    *zap.Logger
}

// NewFetcher creates a fetcher; zero config fields take defaults.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ProgramID == 0 {
		cfg.ProgramID = DefaultProgramID
	}
	logger := logging.OrNop(cfg.Logger)
	opts := fetch.DefaultOptions()
	if cfg.Fetch != nil {
		*opts = *cfg.Fetch
	}
	opts.Logger = logger

	return &Fetcher{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		programID: cfg.ProgramID,
		client:    fetch.NewClient(opts),
		logger:    logger,
	}
}

// programPath is the curriculum page path, also sent as the return URL of the year selection.
func (f *Fetcher) programPath() string {
	return fmt.Sprintf("/tr-TR/Bolum/OgretimProgrami/%d?bot=%d", f.programID, f.programID)
}

func (f *Fetcher) programURL() string {
	return f.baseURL + f.programPath()
}

func (f *Fetcher) selectYearURL() string {
	return f.baseURL + "/tr-TR/Home/BolognaYilGuncelle"
}

// FetchCurriculum runs the three-step protocol: load the program page for the year
// list and first cookie, select the year, then reload the page inside that session.
func (f *Fetcher) FetchCurriculum(ctx context.Context, yearLabel string) (string, error) {
	session, years, err := f.loadProgram(ctx)
	if err != nil {
		return "", err
	}

	yearID, ok := LookupYear(years, yearLabel)
	if !ok {
		return "", &types.NotFoundError{
			What:    "academic year",
			Key:     yearLabel,
			Message: "requested academic year not offered by curriculum source",
		}
	}

	session, err = f.selectYear(ctx, session, yearID)
	if err != nil {
		return "", err
	}

	return f.reloadProgram(ctx, session)
}

func (f *Fetcher) loadProgram(ctx context.Context) (Session, map[string]string, error) {
	var session Session

	result, err := f.client.Get(ctx, StepLoadProgram, f.programURL(), nil)
	if err != nil {
		return session, nil, err
	}

	if value, ok := result.Cookie(CookieLoadBalancer); ok {
		session.LoadBalancer = value
	} else {
		f.logger.Warn("curriculum service did not set cookie, continuing without it",
			zap.String("step", StepLoadProgram),
			zap.String("cookie", CookieLoadBalancer))
	}

	years, err := ParseYearOptions(result.HTML)
	if err != nil {
		return session, nil, err
	}
	f.logger.Debug("loaded academic years", zap.Int("count", len(years)))

	return session, years, nil
}

func (f *Fetcher) selectYear(ctx context.Context, session Session, yearID string) (Session, error) {
	result, err := f.client.Do(ctx, fetch.Request{
		Step:   StepSelectYear,
		Method: http.MethodPost,
		URL:    f.selectYearURL(),
		JSONBody: map[string]string{
			"yilNo":     yearID,
			"returnURL": f.programPath(),
		},
		Cookies: session.Cookies(),
	})
	if err != nil {
		return session, err
	}

	value, ok := result.Cookie(CookieSession)
	if !ok {
		return session, &types.ServiceStateError{Step: StepSelectYear, Cookie: CookieSession}
	}
	session.SessionID = value

	f.logger.Debug("selected academic year", zap.String("year_id", yearID))
	return session, nil
}

func (f *Fetcher) reloadProgram(ctx context.Context, session Session) (string, error) {
	result, err := f.client.Get(ctx, StepReloadProgram, f.programURL(), session.Cookies())
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// ParseYearOptions reads the academic-year dropdown: option text → option value.
func ParseYearOptions(html string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &types.StructuralError{
			Source:  "curriculum",
			Message: "failed to parse year list HTML",
			Cause:   err,
		}
	}

	years := make(map[string]string)
	doc.Find(yearSelector).Each(func(_ int, option *goquery.Selection) {
		value, _ := option.Attr("value")
		years[strings.TrimSpace(option.Text())] = value
	})
	return years, nil
}

// LookupYear finds the option value for a year label, ignoring whitespace differences.
func LookupYear(years map[string]string, label string) (string, bool) {
	if id, ok := years[label]; ok {
		return id, true
	}
	want := normalizeYearLabel(label)
	for text, id := range years {
		if normalizeYearLabel(text) == want {
			return id, true
		}
	}
	return "", false
}
