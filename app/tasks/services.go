package tasks

import (
	"net/http"

	"github.com/lysyi3m/regwatch/app/cfg"
	"github.com/lysyi3m/regwatch/app/database"
	"github.com/lysyi3m/regwatch/app/digest"
)

// NewServices wires the production pipeline, composer, mailer and repositories.
func NewServices(c *cfg.Cfg, db *database.DB) *Services {
	httpClient := &http.Client{}

	return &Services{
		Builder:  NewPipeline(c, httpClient),
		Composer: digest.NewComposer(c.Location),
		Mailer:   digest.NewMailer(c.SMTPHost, c.SMTPPort),
		JobRepo:  database.NewJobRepository(db),
		RunRepo:  database.NewRunRepository(db),
		Location: c.Location,
	}
}
