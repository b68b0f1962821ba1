package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/skinstore/internal/domain"
)

type TokenIssuer interface {
	Issue(uid string, role domain.Role) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type UserUC struct {
	Users  domain.UserRepo
	Tokens TokenIssuer
	Hasher PasswordHasher
	Events domain.Publisher
	Policy Policy
}

type CreateUserRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	FullName string      `json:"fullName"`
	Username string      `json:"username,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

// Session is what a successful sign-in hands back to the client.
type Session struct {
	Token   string              `json:"token"`
	Profile *domain.UserProfile `json:"profile"`
}

// GoogleUser is the subset of Google's userinfo used to sign someone in.
type GoogleUser struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	VerifiedEmail bool   `json:"verified_email"`
}

// AdminCreateUser provisions an account on behalf of staff and returns its uid.
func (uc *UserUC) AdminCreateUser(ctx context.Context, caller *domain.UserProfile, req CreateUserRequest) (string, error) {
	if err := authorize(caller, domain.ActionManageUsers); err != nil {
		return "", err
	}
	if req.Role == "" {
		req.Role = domain.RoleCustomer
	}
	if !req.Role.Valid() {
		return "", invalid("unknown role")
	}
	if req.Role.Privileged() {
		if err := authorize(caller, domain.ActionAssignPrivilegedRoles); err != nil {
			return "", err
		}
	}
	p, err := uc.create(ctx, req, "password")
	if err != nil {
		return "", err
	}
	zlog.Info().Str("uid", p.ID).Str("role", string(p.Role)).Str("by", caller.ID).Msg("user created")
	return p.ID, nil
}

// Register is the public sign-up. It always creates a customer.
func (uc *UserUC) Register(ctx context.Context, req CreateUserRequest) (*Session, error) {
	req.Role = domain.RoleCustomer
	p, err := uc.create(ctx, req, "password")
	if err != nil {
		return nil, err
	}
	return uc.session(p)
}

func (uc *UserUC) create(ctx context.Context, req CreateUserRequest, provider string) (*domain.UserProfile, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("a valid email is required")
	}
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, invalid("full name is required")
	}
	ident := &domain.AuthIdentity{ID: uuid.NewString(), Email: email, Provider: provider}
	if provider == "password" {
		hash, err := uc.Hasher.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		ident.PasswordHash = hash
	}
	p := &domain.UserProfile{
		ID:         ident.ID,
		Email:      email,
		FullName:   name,
		Username:   strings.TrimSpace(req.Username),
		Role:       req.Role,
		PointsTier: domain.TierFor(0),
		Wishlist:   []string{},
	}
	if err := uc.Users.CreateWithIdentity(ctx, ident, p); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: an account with this email already exists", domain.ErrConflict)
		}
		return nil, err
	}
	publish(uc.Events, domain.CollectionUsers, p.ID, "create", p.ID, p)
	return p, nil
}

func (uc *UserUC) Login(ctx context.Context, email, password string) (*Session, error) {
	ident, err := uc.Users.FindIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || strings.TrimSpace(email) == "" {
			return nil, fmt.Errorf("%w: wrong email or password", domain.ErrUnauthenticated)
		}
		return nil, err
	}
	if err := uc.Hasher.Compare(ident.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: wrong email or password", domain.ErrUnauthenticated)
	}
	p, err := uc.Users.FindByID(ctx, ident.ID)
	if err != nil {
		return nil, err
	}
	return uc.session(p)
}

// SignInWithGoogle finds or creates the profile for a verified Google account.
func (uc *UserUC) SignInWithGoogle(ctx context.Context, g GoogleUser) (*Session, error) {
	if !g.VerifiedEmail || strings.TrimSpace(g.Email) == "" {
		return nil, fmt.Errorf("%w: google account email is not verified", domain.ErrUnauthenticated)
	}
	p, err := uc.Users.FindByEmail(ctx, g.Email)
	if errors.Is(err, domain.ErrNotFound) {
		name := g.Name
		if strings.TrimSpace(name) == "" {
			name = strings.Split(g.Email, "@")[0]
		}
		p, err = uc.create(ctx, CreateUserRequest{Email: g.Email, FullName: name, Role: domain.RoleCustomer}, "google")
	}
	if err != nil {
		return nil, err
	}
	return uc.session(p)
}

func (uc *UserUC) session(p *domain.UserProfile) (*Session, error) {
	tok, err := uc.Tokens.Issue(p.ID, p.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, Profile: p}, nil
}

// Authenticate loads the profile behind a verified token subject. The stored
// role, not anything the token says, is what authorization uses.
func (uc *UserUC) Authenticate(ctx context.Context, uid string) (*domain.UserProfile, error) {
	p, err := uc.Users.FindByID(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	return p, err
}

func (uc *UserUC) List(ctx context.Context, caller *domain.UserProfile) ([]domain.UserProfile, error) {
	if err := authorize(caller, domain.ActionManageUsers); err != nil {
		return nil, err
	}
	return uc.Users.List(ctx)
}

func (uc *UserUC) SetRole(ctx context.Context, caller *domain.UserProfile, uid string, role domain.Role) (*domain.UserProfile, error) {
	if err := authorize(caller, domain.ActionManageUsers); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, invalid("unknown role")
	}
	p, err := uc.Users.Update(ctx, uid, func(p *domain.UserProfile) error {
		if role.Privileged() || p.Role.Privileged() {
			if err := authorize(caller, domain.ActionAssignPrivilegedRoles); err != nil {
				return err
			}
		}
		p.Role = role
		return nil
	}, domain.ProfileRoleColumns...)
	if err != nil {
		return nil, err
	}
	zlog.Info().Str("uid", uid).Str("role", string(role)).Str("by", caller.ID).Msg("role changed")
	publish(uc.Events, domain.CollectionUsers, p.ID, "role", p.ID, p)
	return p, nil
}

type ProfileUpdate struct {
	FullName        *string         `json:"fullName"`
	Username        *string         `json:"username"`
	DeliveryAddress *domain.Address `json:"deliveryAddress"`
}

func (uc *UserUC) UpdateProfile(ctx context.Context, caller *domain.UserProfile, upd ProfileUpdate) (*domain.UserProfile, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	var name string
	if upd.FullName != nil {
		if name = strings.TrimSpace(*upd.FullName); name == "" {
			return nil, invalid("full name cannot be empty")
		}
	}
	p, err := uc.Users.Update(ctx, caller.ID, func(p *domain.UserProfile) error {
		if upd.FullName != nil {
			p.FullName = name
		}
		if upd.Username != nil {
			p.Username = strings.TrimSpace(*upd.Username)
		}
		if upd.DeliveryAddress != nil {
			p.DeliveryAddress = *upd.DeliveryAddress
		}
		return nil
	}, domain.ProfileDetailColumns...)
	if err != nil {
		return nil, err
	}
	publish(uc.Events, domain.CollectionUsers, p.ID, "update", p.ID, p)
	return p, nil
}

// ToggleWishlist adds the product to the wishlist, or removes it when present.
func (uc *UserUC) ToggleWishlist(ctx context.Context, caller *domain.UserProfile, productID string) ([]string, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(productID); err != nil {
		return nil, invalid("bad product id")
	}
	p, err := uc.Users.Update(ctx, caller.ID, func(p *domain.UserProfile) error {
		next := make([]string, 0, len(p.Wishlist)+1)
		removed := false
		for _, id := range p.Wishlist {
			if id == productID {
				removed = true
				continue
			}
			next = append(next, id)
		}
		if !removed {
			next = append(next, productID)
		}
		p.Wishlist = next
		return nil
	}, domain.ProfileWishlistColumns...)
	if err != nil {
		return nil, err
	}
	return p.Wishlist, nil
}

// RedeemPoints trades points for a single-use fixed coupon.
func (uc *UserUC) RedeemPoints(ctx context.Context, caller *domain.UserProfile, points int) (*domain.Coupon, *domain.UserProfile, error) {
	if err := requireCaller(caller); err != nil {
		return nil, nil, err
	}
	if points <= 0 || points < uc.Policy.MinRedeemablePoints {
		return nil, nil, invalid(fmt.Sprintf("at least %d points are needed to redeem", uc.Policy.MinRedeemablePoints))
	}
	value := domain.Round2(float64(points) * uc.Policy.RedemptionValue)
	if value <= 0 {
		return nil, nil, invalid("points redemption is not available")
	}
	limit := 1
	reward := &domain.Coupon{
		Code:        "PTS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]),
		Type:        domain.CouponFixed,
		Value:       value,
		UsageLimit:  &limit,
		Status:      domain.CouponActive,
		IsGlobal:    true,
		Description: fmt.Sprintf("%d loyalty points redeemed by %s", points, caller.ID),
	}
	exp := time.Now().AddDate(0, 6, 0)
	reward.ExpirationDate = &exp
	p, err := uc.Users.RedeemPoints(ctx, caller.ID, points, reward)
	if errors.Is(err, domain.ErrInvalidInput) {
		return nil, nil, invalid("not enough points")
	}
	if err != nil {
		return nil, nil, err
	}
	publish(uc.Events, domain.CollectionCoupons, reward.Code, "create", "", nil)
	publish(uc.Events, domain.CollectionUsers, p.ID, "points", p.ID, p)
	return reward, p, nil
}
