package services

import (
	"log/slog"

	"github.com/SAP-F-2025/sat-session-service/internal/events"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
	"github.com/SAP-F-2025/sat-session-service/internal/validator"
)

type serviceManager struct {
	session SessionService
	result  ResultService
	tutor   TutorService
}

func NewServiceManager(
	repo repositories.Repository,
	publisher events.EventPublisher,
	validator *validator.Validator,
	tutorClient TutorClient,
	logger *slog.Logger,
	settings SessionSettings,
) ServiceManager {
	return &serviceManager{
		session: NewSessionService(repo, publisher, validator, logger, settings),
		result:  NewResultService(repo, logger),
		tutor:   NewTutorService(tutorClient, logger),
	}
}

func (m *serviceManager) Session() SessionService { return m.session }
func (m *serviceManager) Result() ResultService   { return m.result }
func (m *serviceManager) Tutor() TutorService     { return m.tutor }
