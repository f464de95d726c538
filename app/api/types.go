package api

import (
	"github.com/chemlab/dealwatch/app/database"
	"github.com/chemlab/dealwatch/app/site"
	"github.com/chemlab/dealwatch/app/tasks"
)

type Handler struct {
	registry  *site.Registry
	stateRepo database.StateRepository
	scheduler tasks.SchedulerInterface
	version   string
}
