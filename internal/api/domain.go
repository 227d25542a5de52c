package api

import (
	"github.com/JaimeStill/weles/internal/audits"
	"github.com/JaimeStill/weles/internal/datasets"
	"github.com/JaimeStill/weles/internal/models"
	"github.com/JaimeStill/weles/internal/users"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Users    users.System
	Datasets datasets.System
	Audits   audits.System
	Models   models.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	usersSystem := users.New(db, runtime.Logger)

	datasetsSystem := datasets.New(
		db,
		runtime.Layout,
		runtime.Archive,
		runtime.Logger,
		runtime.Pagination,
	)

	auditsSystem := audits.New(db, runtime.Logger)

	modelsSystem := models.New(
		db,
		models.Dependencies{
			Layout:       runtime.Layout,
			Archive:      runtime.Archive,
			Environments: runtime.Environments,
			Runtimes:     runtime.Runtimes,
			Datasets:     datasetsSystem,
			Audits:       auditsSystem,
			Tasks:        runtime.Tasks,
		},
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Users:    usersSystem,
		Datasets: datasetsSystem,
		Audits:   auditsSystem,
		Models:   modelsSystem,
	}
}
