package jobs

import (
	"github.com/lysyi3m/regwatch/app/news"
)

type Job struct {
	Name               string   // Derived from filename (without .yml extension)
	Enabled            bool     `yaml:"enabled"`
	Schedule           string   `yaml:"schedule"` // local HH:MM, daily
	Keywords           []string `yaml:"keywords"`
	ExtraKeywords      []string `yaml:"extra_keywords"`
	Window             Window   `yaml:"window"`
	IncludePublishedAt bool     `yaml:"include_published_at"`
	Email              Email    `yaml:"email"`

	clock Clock
}

type Window struct {
	Mode      string `yaml:"mode"` // today, relative_day or unrestricted
	StartHour int    `yaml:"start_hour"`
	EndHour   int    `yaml:"end_hour"`
	DayOffset int    `yaml:"day_offset"`
}

type Email struct {
	Sender      string   `yaml:"sender"`
	PasswordEnv string   `yaml:"password_env"`
	Recipients  []string `yaml:"recipients"`
	Subject     string   `yaml:"subject"`

	password string
}

// AllKeywords is the keyword list the runner pairs up: keywords, then extras.
func (j *Job) AllKeywords() []string {
	all := make([]string, 0, len(j.Keywords)+len(j.ExtraKeywords))
	all = append(all, j.Keywords...)
	all = append(all, j.ExtraKeywords...)
	return all
}

func (j *Job) Mode() news.TimeFilterMode {
	return news.TimeFilterMode{
		Kind:      news.WindowKind(j.Window.Mode),
		DayOffset: j.Window.DayOffset,
		StartHour: j.Window.StartHour,
		EndHour:   j.Window.EndHour,
	}
}

// Password is the SMTP password resolved from PasswordEnv at load time.
func (e Email) Password() string {
	return e.password
}
