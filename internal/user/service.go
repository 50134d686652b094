package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/votestar/votestar-backend/internal/platform/config"
	"github.com/votestar/votestar-backend/internal/platform/database"
	"github.com/votestar/votestar-backend/pkg/apperr"
	"github.com/votestar/votestar-backend/pkg/token"
	"gorm.io/gorm"
)

// userinfoClient 用于调用身份提供方的userinfo端点做资料补全。
// 补全失败不会导致认证失败，所以超时设置得比较激进。
var userinfoClient = &http.Client{Timeout: 5 * time.Second}

// userinfoProfile 是userinfo端点响应中我们关心的字段。
type userinfoProfile struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

// Authenticate 是身份解析的主入口：把一个bearer令牌解析为内部用户。
// 查找顺序：缓存/subject字段 -> 旧数据的email兜底（顺带回填subject）
// -> userinfo资料补全 -> JIT建档。
// 只有令牌本身不可用时才失败；资料补全失败不会中断认证。
func Authenticate(rawToken string) (*User, error) {
	if rawToken == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "Could not validate credentials")
	}

	claims, err := token.DecodeBearer(rawToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "Could not validate credentials", err)
	}
	sub := claims.Subject

	usr, err := findBySubject(sub)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransactionFailed, "Authentication lookup failed", err)
	}

	// 资料补全：新用户，或老用户的资料仍是占位值
	if usr == nil || usr.Name == "" || usr.Email == sub {
		if enriched := enrichFromUserinfo(usr, sub, rawToken); enriched != nil {
			usr = enriched
		}
	}

	// JIT建档：补全被跳过或失败时，用subject占位创建账户
	if usr == nil {
		usr = &User{
			Email:             sub,
			AuthSubject:       &sub,
			PhoneNumber:       fmt.Sprintf("auth@-%s", sub),
			DeviceFingerprint: "auth0_verified",
			UserType:          TypeIndividual,
			IsVerified:        true,
		}
		newID, idErr := uuid.NewV7()
		if idErr != nil {
			return nil, apperr.Wrap(apperr.KindTransactionFailed, "Authentication failed", idErr)
		}
		usr.ID = newID.String()
		if err := database.DB.Create(usr).Error; err != nil {
			// 并发JIT：另一请求抢先创建了同一subject的账户，改为读取已有行
			if database.IsDuplicatedKey(err) {
				if existing, findErr := findBySubject(sub); findErr == nil && existing != nil {
					usr = existing
				} else {
					return nil, apperr.Wrap(apperr.KindTransactionFailed, "Authentication failed", err)
				}
			} else {
				return nil, apperr.Wrap(apperr.KindTransactionFailed, "Authentication failed", err)
			}
		}
	}

	cacheSubject(sub, usr.ID)
	return usr, nil
}

// findBySubject 按subject解析用户：先查Redis缓存，再查subject字段，
// 最后兜底查email（旧数据曾把subject存在email里），命中则顺带回填subject。
func findBySubject(sub string) (*User, error) {
	if database.RedisAvailable() {
		if id, err := database.RDB.HGet(database.Ctx, SubjectCacheKey, sub).Result(); err == nil && id != "" {
			var cached User
			if err := database.DB.First(&cached, "id = ?", id).Error; err == nil {
				return &cached, nil
			}
		}
	}

	var usr User
	err := database.DB.First(&usr, "auth_subject = ?", sub).Error
	if err == nil {
		return &usr, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 旧数据兜底：subject被当作email存储的行
	err = database.DB.First(&usr, "email = ?", sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// 命中旧行时回填subject字段（启动时的批量回填覆盖不到新出现的旧行）
	usr.AuthSubject = &sub
	if err := database.DB.Model(&usr).Update("auth_subject", sub).Error; err != nil {
		fmt.Printf("警告: 旧用户subject回填失败: %v\n", err)
	}
	return &usr, nil
}

// enrichFromUserinfo 调用身份提供方的userinfo端点补全用户资料。
// 任何失败都只打印日志并返回nil（调用方继续走JIT路径），不阻断认证。
func enrichFromUserinfo(usr *User, sub, rawToken string) *User {
	endpoint := ""
	if config.Cfg != nil {
		endpoint = config.Cfg.Auth.UserinfoURL
	}
	if endpoint == "" {
		return nil
	}

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+rawToken)

	resp, err := userinfoClient.Do(req)
	if err != nil {
		fmt.Printf("认证: 资料补全请求失败: %v\n", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var profile userinfoProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		fmt.Printf("认证: 资料补全响应解析失败: %v\n", err)
		return nil
	}

	realName := profile.Name
	if realName == "" {
		realName = profile.Nickname
	}

	if usr == nil {
		email := profile.Email
		if email == "" {
			email = sub
		}
		newID, err := uuid.NewV7()
		if err != nil {
			return nil
		}
		created := &User{
			ID:                newID.String(),
			Email:             email,
			Name:              realName,
			AuthSubject:       &sub,
			PhoneNumber:       fmt.Sprintf("auth@-%s", sub),
			DeviceFingerprint: "auth0_verified",
			UserType:          TypeIndividual,
			IsVerified:        true,
		}
		if err := database.DB.Create(created).Error; err != nil {
			fmt.Printf("认证: 资料补全建档失败: %v\n", err)
			return nil
		}
		return created
	}

	if profile.Email != "" {
		usr.Email = profile.Email
	}
	if realName != "" {
		usr.Name = realName
	}
	if err := database.DB.Save(usr).Error; err != nil {
		fmt.Printf("认证: 资料补全更新失败: %v\n", err)
	}
	return usr
}

// cacheSubject 将subject到用户ID的映射写入Redis缓存（尽力而为）。
func cacheSubject(sub, id string) {
	if !database.RedisAvailable() {
		return
	}
	if err := database.RDB.HSet(database.Ctx, SubjectCacheKey, sub, id).Err(); err != nil {
		fmt.Printf("警告: 写入subject缓存失败: %v\n", err)
	}
}

// ResolveUser 是面向用户间互操作的二级解析入口：
// 依次尝试按内部UUID、按subject、按email查找。找不到时返回(nil, nil)。
func ResolveUser(identifier string) (*User, error) {
	if identifier == "" {
		return nil, nil
	}

	if _, err := uuid.Parse(identifier); err == nil {
		var usr User
		err := database.DB.First(&usr, "id = ?", identifier).Error
		if err == nil {
			return &usr, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var usr User
	err := database.DB.First(&usr, "auth_subject = ?", identifier).Error
	if err == nil {
		return &usr, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = database.DB.First(&usr, "email = ?", identifier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &usr, nil
}

// MaybeAutoVerify 执行基于影响力的组织自动认证检查。
// 在每次关注和每次档案读取时机会式地调用；一经认证实际上不会回退。
func MaybeAutoVerify(tx *gorm.DB, usr *User) (bool, error) {
	if usr.UserType != TypeOrganization || usr.IsVerifiedOrg {
		return false, nil
	}
	if usr.FollowerCount < config.InfluenceThreshold() {
		return false, nil
	}
	usr.IsVerifiedOrg = true
	if err := tx.Model(&User{}).Where("id = ?", usr.ID).Update("is_verified_org", true).Error; err != nil {
		return false, err
	}
	fmt.Printf("组织账户已自动认证: %s\n", usr.Email)
	return true, nil
}
