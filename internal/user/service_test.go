package user_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/votestar/votestar-backend/internal/platform/config"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/pkg/token"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	database.DB = db
	database.RDB = nil
	require.NoError(t, user.PrimeCachedDB())
	token.Configure("", "", "")
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return raw
}

func mustInsertUser(t *testing.T, u *user.User) *user.User {
	t.Helper()
	if u.ID == "" {
		id, err := uuid.NewV7()
		require.NoError(t, err)
		u.ID = id.String()
	}
	require.NoError(t, database.DB.Create(u).Error)
	return u
}

func TestAuthenticateJITCreatesAccount(t *testing.T) {
	setupTestDB(t)

	raw := signToken(t, jwt.MapClaims{"sub": "auth0|newcomer"})
	usr, err := user.Authenticate(raw)
	require.NoError(t, err)
	require.NotNil(t, usr)

	assert.Equal(t, "auth0|newcomer", usr.Email)
	require.NotNil(t, usr.AuthSubject)
	assert.Equal(t, "auth0|newcomer", *usr.AuthSubject)
	assert.Equal(t, "auth@-auth0|newcomer", usr.PhoneNumber)
	assert.Equal(t, "auth0_verified", usr.DeviceFingerprint)
	assert.Equal(t, user.TypeIndividual, usr.UserType)
	assert.True(t, usr.IsVerified)

	// 重复认证复用同一账户
	again, err := user.Authenticate(raw)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, again.ID)

	var count int64
	require.NoError(t, database.DB.Model(&user.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAuthenticateRejectsEmptyToken(t *testing.T) {
	setupTestDB(t)

	_, err := user.Authenticate("")
	assert.Error(t, err)

	_, err = user.Authenticate("not-a-jwt")
	assert.Error(t, err)
}

func TestAuthenticateLegacyEmailFallback(t *testing.T) {
	setupTestDB(t)

	// 旧数据：subject被存在email字段里，auth_subject为空
	legacy := mustInsertUser(t, &user.User{
		Email:    "auth0|legacy-citizen",
		Name:     "Legacy Citizen",
		UserType: user.TypeIndividual,
	})

	raw := signToken(t, jwt.MapClaims{"sub": "auth0|legacy-citizen"})
	usr, err := user.Authenticate(raw)
	require.NoError(t, err)
	assert.Equal(t, legacy.ID, usr.ID)

	// 命中旧行后subject被回填
	var reloaded user.User
	require.NoError(t, database.DB.First(&reloaded, "id = ?", legacy.ID).Error)
	require.NotNil(t, reloaded.AuthSubject)
	assert.Equal(t, "auth0|legacy-citizen", *reloaded.AuthSubject)
}

func TestBackfillLegacySubjects(t *testing.T) {
	setupTestDB(t)

	legacy := mustInsertUser(t, &user.User{
		Email:    "auth0|batch-legacy",
		UserType: user.TypeIndividual,
	})
	normal := mustInsertUser(t, &user.User{
		Email:    "plain@example.com",
		UserType: user.TypeIndividual,
	})

	require.NoError(t, user.BackfillLegacySubjects())

	var reloaded user.User
	require.NoError(t, database.DB.First(&reloaded, "id = ?", legacy.ID).Error)
	require.NotNil(t, reloaded.AuthSubject)
	assert.Equal(t, "auth0|batch-legacy", *reloaded.AuthSubject)

	// 普通email的行不受影响
	var reloadedNormal user.User
	require.NoError(t, database.DB.First(&reloadedNormal, "id = ?", normal.ID).Error)
	assert.Nil(t, reloadedNormal.AuthSubject)
}

func TestResolveUser(t *testing.T) {
	setupTestDB(t)

	sub := "auth0|resolvable"
	target := mustInsertUser(t, &user.User{
		Email:       "resolve@example.com",
		AuthSubject: &sub,
		UserType:    user.TypeIndividual,
	})

	byID, err := user.ResolveUser(target.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, target.ID, byID.ID)

	bySubject, err := user.ResolveUser(sub)
	require.NoError(t, err)
	require.NotNil(t, bySubject)
	assert.Equal(t, target.ID, bySubject.ID)

	byEmail, err := user.ResolveUser("resolve@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, target.ID, byEmail.ID)

	missing, err := user.ResolveUser("no-such-identifier")
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := user.ResolveUser("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestMaybeAutoVerify(t *testing.T) {
	setupTestDB(t)

	config.Cfg = &config.Config{Governance: config.GovernanceConfig{
		SignatureThreshold: 50,
		InfluenceThreshold: 3,
	}}
	t.Cleanup(func() { config.Cfg = nil })

	org := mustInsertUser(t, &user.User{
		Email:         "org@example.com",
		UserType:      user.TypeOrganization,
		FollowerCount: 3,
	})

	promoted, err := user.MaybeAutoVerify(database.DB, org)
	require.NoError(t, err)
	assert.True(t, promoted)

	var reloaded user.User
	require.NoError(t, database.DB.First(&reloaded, "id = ?", org.ID).Error)
	assert.True(t, reloaded.IsVerifiedOrg)

	// 已认证的组织不会重复认证
	promoted, err = user.MaybeAutoVerify(database.DB, &reloaded)
	require.NoError(t, err)
	assert.False(t, promoted)

	// 关注数不足的组织不认证
	small := mustInsertUser(t, &user.User{
		Email:         "small-org@example.com",
		UserType:      user.TypeOrganization,
		FollowerCount: 2,
	})
	promoted, err = user.MaybeAutoVerify(database.DB, small)
	require.NoError(t, err)
	assert.False(t, promoted)

	// 个人账户不适用
	individual := mustInsertUser(t, &user.User{
		Email:         "person@example.com",
		UserType:      user.TypeIndividual,
		FollowerCount: 100,
	})
	promoted, err = user.MaybeAutoVerify(database.DB, individual)
	require.NoError(t, err)
	assert.False(t, promoted)
}
