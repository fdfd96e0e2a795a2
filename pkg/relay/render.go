package relay

import (
	"embed"
	"io/fs"
	"time"

	"github.com/legalbook/relay/pkg/mailer"
)

//go:embed templates
var templateFS embed.FS

const (
	// DefaultSubject is the notification subject when none is configured.
	DefaultSubject = "New Audit Submission - Legalbook Assessment"
	// DefaultLayout wraps the HTML body.
	DefaultLayout = "base.html"

	submissionTemplate = "submission"
	submittedAtFormat  = "2006-01-02 15:04:05 MST"
)

var defaultRenderer = NewRenderer()

// NewRenderer returns a renderer over the embedded notification templates.
func NewRenderer() *mailer.Renderer {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err) // embedded directory always exists
	}
	return mailer.NewRendererWithConfig(sub, mailer.RendererConfig{HardWraps: true})
}

// Render produces the HTML and plain-text notification for s.
// Output depends only on s: the same Submission renders byte-identical bodies.
func Render(s Submission) (*mailer.RenderResult, error) {
	return defaultRenderer.Render(DefaultLayout, submissionTemplate, newView(s.Normalize(), DefaultSubject))
}

type sectionView struct {
	Name  string
	Score string
}

// view is the template data. Every value is preformatted so both bodies
// print identical field values.
type view struct {
	Subject     string
	Name        string
	Email       string
	Phone       string
	Company     string
	TotalScore  string
	Category    string
	SubmittedAt string
	Sections    []sectionView
}

func newView(s Submission, subject string) view {
	v := view{
		Subject:  subject,
		Name:     s.Name,
		Email:    s.Email,
		Phone:    s.Phone,
		Company:  s.Company,
		Category: s.Category,
	}
	if s.TotalScore != nil {
		v.TotalScore = FormatScore(*s.TotalScore)
	}
	if !s.ReceivedAt.IsZero() {
		v.SubmittedAt = s.ReceivedAt.UTC().Format(submittedAtFormat)
	}

	if len(s.SectionScores) > 0 {
		v.Sections = make([]sectionView, 0, len(s.SectionScores))
		for _, sc := range s.SectionScores {
			v.Sections = append(v.Sections, sectionView{
				Name:  sc.Name,
				Score: FormatScore(sc.Score),
			})
		}
	}
	return v
}

// stamp sets ReceivedAt when the caller left it empty.
func stamp(s Submission, now func() time.Time) Submission {
	if s.ReceivedAt.IsZero() {
		s.ReceivedAt = now()
	}
	return s
}
