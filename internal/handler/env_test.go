package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shopping/internal/domain/model"
	infraRepo "shopping/internal/infra/repository"
	"shopping/internal/infra/token"
	"shopping/internal/middleware"
	"shopping/internal/testutil"
	"shopping/internal/usecase"
	auth "shopping/internal/usecase/auth_usecase"
	"shopping/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

type nopNotifier struct{}

func (nopNotifier) SendOrderConfirmation(_ context.Context, _ model.User, _ model.Order) {}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// sqlite + 本物の usecase / middleware で echo を組む
type testServer struct {
	e   *echo.Echo
	db  *gorm.DB
	jwt *token.JWT
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.OpenSQLite(t)
	jwt := token.NewJWT(testSecret, time.Minute)

	tx := infraRepo.NewTxManagerGorm(db)
	users := infraRepo.NewUserGormRepository(db)
	cart := infraRepo.NewCartGormRepository(db)
	products := infraRepo.NewProductGormRepository(db)
	categories := infraRepo.NewCategoryGormRepository(db)

	authMW := []echo.MiddlewareFunc{middleware.AuthJWT(jwt), middleware.TokenVersionGuard(users)}
	mw := Guards{
		Auth:  authMW,
		Admin: append(append([]echo.MiddlewareFunc{}, authMW...), middleware.AdminRoleGuard()),
	}

	e := echo.New()
	e.Validator = validator.New()

	logoutAll := auth.NewLogoutAllUsecase(users)
	productUC := usecase.NewProductUsecase(products, categories, tx)

	NewAuthHandler(
		auth.NewRegisterUserUsecase(users, auth.NewBcryptPasswordHasher(bcrypt.MinCost), systemClock{}),
		auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), jwt, systemClock{}),
		logoutAll,
	).RegisterRoutes(e, mw)
	NewAdminUserHandler(logoutAll).RegisterRoutes(e, mw)
	NewProductHandler(productUC).RegisterRoutes(e)
	NewAdminProductHandler(productUC).RegisterRoutes(e, mw)
	NewCategoryHandler(usecase.NewCategoryUsecase(categories, products)).RegisterRoutes(e, mw)
	NewCartHandler(usecase.NewCartUsecase(cart, cart, products, tx)).RegisterRoutes(e, mw)
	NewAdminOrderHandler(usecase.NewAdminOrderUsecase(tx)).RegisterRoutes(e, mw)
	NewOrderHandler(usecase.NewOrderUsecase(tx, users, nopNotifier{}, zap.NewNop())).RegisterRoutes(e, mw)
	NewReviewHandler(usecase.NewReviewUsecase(tx, infraRepo.NewReviewGormRepository(db), products)).RegisterRoutes(e, mw)
	NewAnalyticsHandler(usecase.NewAnalyticsUsecase(infraRepo.NewAnalyticsGormRepository(db))).RegisterRoutes(e, mw)
	NewAuditLogHandler(usecase.NewAuditLogUsecase(infraRepo.NewAuditLogGormRepository(db))).RegisterRoutes(e, mw)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	NewHealthHandler(sqlDB).RegisterRoutes(e)

	return &testServer{e: e, db: db, jwt: jwt}
}

// ユーザーを作って access token を返す
func (s *testServer) login(t *testing.T, email string, role model.Role) (model.User, string) {
	t.Helper()
	u := testutil.SeedUser(t, s.db, email, role)
	tok, _, err := s.jwt.Issue(u.ID, u.Role, u.TokenVersion, time.Now())
	require.NoError(t, err)
	return u, tok
}

func (s *testServer) doJSON(t *testing.T, method, path, bearer string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	resp := rec.Result()
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func requireStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body=%s", string(body))
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoErrorf(t, json.Unmarshal(body, &v), "body=%s", string(body))
	return v
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	return decode[ErrorResponse](t, body).Error
}
