package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veriloan/backend/internal/database"
	"github.com/veriloan/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, admin bool) models.User {
	user := models.User{
		Name:         "Test User",
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()),
		PasswordHash: "x",
		IsAdmin:      admin,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// testContext builds a gin context carrying the auth middleware's claims
func testContext(t *testing.T, user models.User, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	c.Set("user_id", user.ID.String())
	c.Set("email", user.Email)
	c.Set("is_admin", user.IsAdmin)
	return c, recorder
}

func TestCreateLoan(t *testing.T) {
	db := setupTestDB(t)
	handler := NewLoanHandler(db, nil)
	user := createTestUser(t, db, false)

	c, recorder := testContext(t, user, http.MethodPost, "/api/loan", CreateLoanRequest{
		LoanType:     "Personal Loan",
		Amount:       300000,
		Tenure:       24,
		InterestRate: 12,
		Purpose:      "home renovation",
	})

	handler.CreateLoan(c)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var loan models.LoanApplication
	require.NoError(t, db.First(&loan, "user_id = ?", user.ID).Error)
	assert.Equal(t, models.LoanTypePersonal, loan.LoanType)
	assert.Equal(t, models.LoanStatusPending, loan.Status)
	assert.NotEmpty(t, loan.Reference)
	assert.Greater(t, loan.EMI, 0.0)
}

func TestCreateLoanInvalidType(t *testing.T) {
	db := setupTestDB(t)
	handler := NewLoanHandler(db, nil)
	user := createTestUser(t, db, false)

	c, recorder := testContext(t, user, http.MethodPost, "/api/loan", CreateLoanRequest{
		LoanType:     "Yacht Loan",
		Amount:       300000,
		Tenure:       24,
		InterestRate: 12,
		Purpose:      "boats",
	})

	handler.CreateLoan(c)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetLoansScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	handler := NewLoanHandler(db, nil)
	alice := createTestUser(t, db, false)
	bob := createTestUser(t, db, false)
	admin := createTestUser(t, db, true)

	for _, u := range []models.User{alice, bob} {
		loan := models.LoanApplication{
			Reference: fmt.Sprintf("LOAN_%s", uuid.NewString()[:8]),
			UserID:    u.ID,
			LoanType:  models.LoanTypeGold,
			Amount:    100000,
			Tenure:    12,
			Purpose:   "test",
			Status:    models.LoanStatusPending,
		}
		require.NoError(t, db.Create(&loan).Error)
	}

	c, recorder := testContext(t, alice, http.MethodGet, "/api/loan", nil)
	handler.GetLoans(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Loans []models.LoanApplication `json:"loans"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp.Loans, 1)
	assert.Equal(t, alice.ID, resp.Loans[0].UserID)

	// Admins see everything.
	c, recorder = testContext(t, admin, http.MethodGet, "/api/loan", nil)
	handler.GetLoans(c)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Len(t, resp.Loans, 2)
}

func TestCalculateEMI(t *testing.T) {
	// 500000 at 12% over 24 months is a well-known amortization figure.
	emi := calculateEMI(500000, 12, 24)
	assert.InDelta(t, 23536.74, emi, 1.0)

	// Zero rate degrades to straight division.
	assert.InDelta(t, 1000.0, calculateEMI(12000, 0, 12), 0.001)

	assert.Zero(t, calculateEMI(12000, 10, 0))
}
