// Package services реализует оркестратор учетных записей: регистрацию,
// вход, выход, обновление токенов, подтверждение и смену почты,
// а также административные операции над ролями.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/account-service/internal/lib/apperr"
	"github.com/magabrotheeeer/account-service/internal/lib/password"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// Длина одноразового пароля супер-администратора.
const superAdminPasswordLength = 12

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User, roleUID string, confirmationUID *string) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
	CountUsersByRoleAndStatuses(ctx context.Context, roleName string, statuses []models.UserStatus) (int, error)
	UpdateUserStatus(ctx context.Context, userUID string, status models.UserStatus) error
	UpdateUserEmailAndConfirmation(ctx context.Context, userUID, email, confirmationUID string) error
	AddRoleToUser(ctx context.Context, userUID, roleUID string) error
}

// RoleRepository описывает контракт для чтения предзаполненных ролей.
type RoleRepository interface {
	GetRoleByName(ctx context.Context, roleName string) (*models.Role, error)
}

// ConfirmationEngine описывает жизненный цикл проверочных кодов.
type ConfirmationEngine interface {
	Issue(ctx context.Context) (*models.Confirmation, error)
	Close(ctx context.Context, confirmationUID string) error
	Confirm(ctx context.Context, code string, conf *models.Confirmation) (*models.Confirmation, error)
}

// TokenIssuer описывает выпуск и проверку пар токенов.
type TokenIssuer interface {
	IssuePair(ctx context.Context, user *models.User) (*models.TokenPair, error)
	VerifyRefresh(user *models.User, rawToken string) error
	ClearRefresh(ctx context.Context, userUID string) error
}

// Notifier публикует письма в очередь уведомлений.
type Notifier interface {
	Publish(routingKey string, message any) error
}

// SessionInvalidator сбрасывает кэшированное состояние сессии пользователя.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// AccountService оркестрирует работу с учетными записями поверх
// хранилища, движка подтверждений и сервиса токенов.
type AccountService struct {
	log           *slog.Logger
	users         UserRepository
	roles         RoleRepository
	confirmations ConfirmationEngine
	tokens        TokenIssuer
	notifier      Notifier
	sessions      SessionInvalidator
}

// NewAccountService создает новый экземпляр AccountService.
func NewAccountService(log *slog.Logger, users UserRepository, roles RoleRepository,
	confirmations ConfirmationEngine, tokens TokenIssuer,
	notifier Notifier, sessions SessionInvalidator) *AccountService {
	return &AccountService{
		log:           log,
		users:         users,
		roles:         roles,
		confirmations: confirmations,
		tokens:        tokens,
		notifier:      notifier,
		sessions:      sessions,
	}
}

// SessionCacheKey ключ кэша сессии пользователя.
func SessionCacheKey(userUID string) string {
	return "session:" + userUID
}

// SignUp регистрирует нового пользователя со статусом on_check, выпускает
// проверочный код, публикует письмо и возвращает пару токенов.
func (s *AccountService) SignUp(ctx context.Context, fullname, username, email, rawPassword string) (*models.TokenPair, error) {
	const op = "account.SignUp"

	role, err := s.roles.GetRoleByName(ctx, models.RoleUser)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w: role %s is not seeded", op, apperr.ErrInternal, models.RoleUser)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	passwordHash, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conf, err := s.confirmations.Issue(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Fullname:     fullname,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       models.StatusOnCheck,
	}
	uid, err := s.users.CreateUser(ctx, user, role.UID, &conf.UID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.UID = uid
	user.Roles = []models.Role{*role}

	s.publishEmail("confirmation", models.EmailMessage{
		Kind:     models.EmailKindConfirmationCode,
		Email:    email,
		Username: username,
		Code:     conf.Code,
	})

	pair, err := s.tokens.IssuePair(ctx, &user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

// SignIn проверяет учетные данные и выпускает новую пару токенов,
// вытесняя предыдущую сессию пользователя.
func (s *AccountService) SignIn(ctx context.Context, username, rawPassword string) (*models.TokenPair, error) {
	const op = "account.SignIn"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w: invalid credentials", op, apperr.ErrUnauthorized)
	}

	pair, err := s.tokens.IssuePair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

// Logout закрывает сессию: удаляет хэш refresh-токена и сбрасывает
// кэш сессии. После выхода оставшиеся access-токены отклоняются.
func (s *AccountService) Logout(ctx context.Context, userUID string) error {
	const op = "account.Logout"

	if err := s.tokens.ClearRefresh(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.sessions.Invalidate(ctx, SessionCacheKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate session cache",
			slog.String("op", op),
			slog.String("user_uid", userUID),
			sl.Err(err))
	}
	return nil
}

// RefreshTokens проверяет refresh-токен, сверяет его с сохраненным хэшем
// и выпускает новую пару, делая предыдущий refresh-токен недействительным.
func (s *AccountService) RefreshTokens(ctx context.Context, userUID, rawToken string) (*models.TokenPair, error) {
	const op = "account.RefreshTokens"

	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w: unknown user", op, apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokens.VerifyRefresh(user, rawToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.tokens.IssuePair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

// ConfirmUserEmail выполняет попытку подтверждения почты. При верном коде
// пользователь становится активным. При неверном коде возвращается
// CodeRejectedError с числом оставшихся попыток, а после их исчерпания —
// ErrNotAcceptable с предложением зарегистрировать почту заново.
func (s *AccountService) ConfirmUserEmail(ctx context.Context, userUID, code string) (*models.User, error) {
	const op = "account.ConfirmUserEmail"

	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Confirmation == nil {
		return nil, fmt.Errorf("%s: %w: no active confirmation", op, apperr.ErrNotFound)
	}

	updated, err := s.confirmations.Confirm(ctx, code, user.Confirmation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch updated.ConfirmationStatus {
	case models.ConfirmationPending:
		return nil, fmt.Errorf("%s: %w", op, &apperr.CodeRejectedError{AttemptsLeft: updated.Attempts})
	case models.ConfirmationDeclined:
		return nil, fmt.Errorf("%s: %w: confirmation attempts exhausted, register your email again", op, apperr.ErrNotAcceptable)
	}

	if err := s.users.UpdateUserStatus(ctx, user.UID, models.StatusActive); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.Status = models.StatusActive
	user.Confirmation = updated
	return user, nil
}

// RegisterNewUserEmail закрывает действующее подтверждение, привязывает
// новую почту с новым кодом и публикует письмо. Пользователь с удаленной
// или отключенной учетной записью менять почту не может.
func (s *AccountService) RegisterNewUserEmail(ctx context.Context, userUID, newEmail string) (*models.User, error) {
	const op = "account.RegisterNewUserEmail"

	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Status == models.StatusDeleted || user.Status == models.StatusInactive {
		return nil, fmt.Errorf("%s: %w: account is not allowed to change email", op, apperr.ErrForbidden)
	}

	conf, err := s.confirmations.Issue(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrBadRequest, err)
	}
	if err := s.users.UpdateUserEmailAndConfirmation(ctx, user.UID, newEmail, conf.UID); err != nil {
		// компенсация: только что выпущенный код не должен остаться активным
		if closeErr := s.confirmations.Close(ctx, conf.UID); closeErr != nil {
			s.log.Error("failed to close issued confirmation after rollback",
				slog.String("op", op), sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrBadRequest, err)
	}
	// Старый код закрывается последним; закрытие идемпотентно,
	// его сбой не отменяет уже состоявшуюся смену почты.
	if user.Confirmation != nil {
		if err := s.confirmations.Close(ctx, user.Confirmation.UID); err != nil {
			s.log.Warn("failed to close previous confirmation",
				slog.String("op", op), sl.Err(err))
		}
	}

	s.publishEmail("confirmation", models.EmailMessage{
		Kind:     models.EmailKindConfirmationCode,
		Email:    newEmail,
		Username: user.Username,
		Code:     conf.Code,
	})

	user.Email = newEmail
	user.Confirmation = conf
	return user, nil
}

// CreateSuperAdmin создает единственного супер-администратора со случайным
// одноразовым паролем и отправляет пароль на указанную почту. Если
// супер-администратор уже существует в статусе on_check или active,
// операция запрещена.
func (s *AccountService) CreateSuperAdmin(ctx context.Context, fullname, username, email string) (*models.User, error) {
	const op = "account.CreateSuperAdmin"

	count, err := s.users.CountUsersByRoleAndStatuses(ctx, models.RoleSuperAdmin,
		[]models.UserStatus{models.StatusOnCheck, models.StatusActive})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%s: %w: super admin already exists", op, apperr.ErrForbidden)
	}

	role, err := s.roles.GetRoleByName(ctx, models.RoleSuperAdmin)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w: role %s is not seeded", op, apperr.ErrInternal, models.RoleSuperAdmin)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	oneTimePassword, err := password.GenerateOneTime(superAdminPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	passwordHash, err := password.GetHash(oneTimePassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Fullname:     fullname,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       models.StatusOnCheck,
	}
	uid, err := s.users.CreateUser(ctx, user, role.UID, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.UID = uid
	user.Roles = []models.Role{*role}

	s.publishEmail("superadmin", models.EmailMessage{
		Kind:     models.EmailKindSuperAdminPassword,
		Email:    email,
		Username: username,
		Password: oneTimePassword,
	})

	return &user, nil
}

// ConfirmSuperAdmin переводит супер-администратора в статус active.
func (s *AccountService) ConfirmSuperAdmin(ctx context.Context, userUID string) (*models.User, error) {
	const op = "account.ConfirmSuperAdmin"

	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.HasRole(models.RoleSuperAdmin) {
		return nil, fmt.Errorf("%s: %w: user is not a super admin", op, apperr.ErrForbidden)
	}

	if err := s.users.UpdateUserStatus(ctx, user.UID, models.StatusActive); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.Status = models.StatusActive
	return user, nil
}

// UpdateUserRoleToAdmin добавляет пользователю роль администратора.
// Повторная выдача роли — no-op.
func (s *AccountService) UpdateUserRoleToAdmin(ctx context.Context, userUID string) (*models.User, error) {
	const op = "account.UpdateUserRoleToAdmin"

	role, err := s.roles.GetRoleByName(ctx, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.users.AddRoleToUser(ctx, user.UID, role.UID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.HasRole(models.RoleAdmin) {
		user.Roles = append(user.Roles, *role)
	}
	return user, nil
}

// publishEmail публикует письмо в очередь уведомлений. Ошибка публикации
// логируется и не влияет на результат операции.
func (s *AccountService) publishEmail(routingKey string, message models.EmailMessage) {
	if err := s.notifier.Publish(routingKey, message); err != nil {
		s.log.Error("failed to publish email notification",
			slog.String("routing_key", routingKey),
			slog.String("kind", message.Kind),
			sl.Err(err))
	}
}
