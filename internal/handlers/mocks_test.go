package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/SAP-F-2025/sat-session-service/internal/models"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories"
	"github.com/SAP-F-2025/sat-session-service/internal/services"
	"github.com/SAP-F-2025/sat-session-service/internal/session"
	"github.com/SAP-F-2025/sat-session-service/internal/tutor"
	"github.com/SAP-F-2025/sat-session-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) view(args mock.Arguments) (*session.SessionView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.SessionView), args.Error(1)
}

func (m *MockSessionService) toggle(args mock.Arguments) (*services.ToggleResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ToggleResponse), args.Error(1)
}

func (m *MockSessionService) Start(ctx context.Context, req *services.StartSessionRequest, userID string) (*session.SessionView, error) {
	return m.view(m.Called(ctx, req, userID))
}

func (m *MockSessionService) Restore(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, userID))
}

func (m *MockSessionService) Get(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, userID))
}

func (m *MockSessionService) ListResumable(ctx context.Context, userID string) (*services.ResumableListResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ResumableListResponse), args.Error(1)
}

func (m *MockSessionService) Begin(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, userID))
}

func (m *MockSessionService) Answer(ctx context.Context, sessionID string, req *services.AnswerRequest, userID string) (*session.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, req, userID))
}

func (m *MockSessionService) Navigate(ctx context.Context, sessionID string, req *services.NavigateRequest, userID string) (*session.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, req, userID))
}

func (m *MockSessionService) ToggleCrossOut(ctx context.Context, sessionID string, req *services.CrossOutRequest, userID string) (*services.ToggleResponse, error) {
	return m.toggle(m.Called(ctx, sessionID, req, userID))
}

func (m *MockSessionService) ToggleMark(ctx context.Context, sessionID string, req *services.MarkRequest, userID string) (*services.ToggleResponse, error) {
	return m.toggle(m.Called(ctx, sessionID, req, userID))
}

func (m *MockSessionService) PauseClock(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, userID))
}

func (m *MockSessionService) ResumeClock(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, userID))
}

func (m *MockSessionService) FinishModule(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, userID))
}

func (m *MockSessionService) SkipIntermission(ctx context.Context, sessionID, userID string) (*session.SessionView, error) {
	return m.view(m.Called(ctx, sessionID, userID))
}

func (m *MockSessionService) Exit(ctx context.Context, sessionID, userID string) (*services.ExitResponse, error) {
	args := m.Called(ctx, sessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExitResponse), args.Error(1)
}

func (m *MockSessionService) Shutdown(ctx context.Context) {
	m.Called(ctx)
}

type MockResultService struct {
	mock.Mock
}

func (m *MockResultService) Get(ctx context.Context, resultID, userID string) (*models.ExamResult, error) {
	args := m.Called(ctx, resultID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamResult), args.Error(1)
}

func (m *MockResultService) List(ctx context.Context, userID string, filters repositories.ResultFilters) (*services.ResultListResponse, error) {
	args := m.Called(ctx, userID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ResultListResponse), args.Error(1)
}

func (m *MockResultService) SubcategoryStats(ctx context.Context, userID string) ([]models.SubcategoryStat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubcategoryStat), args.Error(1)
}

func (m *MockResultService) ExportToExcel(ctx context.Context, resultID, userID string) ([]byte, error) {
	args := m.Called(ctx, resultID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockTutorService struct {
	mock.Mock
}

func (m *MockTutorService) Chat(ctx context.Context, req *tutor.Request, userID string) (*tutor.Response, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tutor.Response), args.Error(1)
}

type mockServiceManager struct {
	session *MockSessionService
	result  *MockResultService
	tutor   *MockTutorService
}

func newMockServiceManager() *mockServiceManager {
	return &mockServiceManager{
		session: new(MockSessionService),
		result:  new(MockResultService),
		tutor:   new(MockTutorService),
	}
}

func (m *mockServiceManager) Session() services.SessionService { return m.session }
func (m *mockServiceManager) Result() services.ResultService   { return m.result }
func (m *mockServiceManager) Tutor() services.TutorService     { return m.tutor }

type fakeParser struct {
	tokens map[string]*casdoorsdk.Claims
}

func (p fakeParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	if claims, ok := p.tokens[token]; ok {
		return claims, nil
	}
	return nil, errInvalidToken
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
