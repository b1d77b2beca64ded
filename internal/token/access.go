package token

import (
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"

    "github.com/iliyamo/venue-reservation/internal/clock"
    "github.com/iliyamo/venue-reservation/internal/model"
)

// AccessToken is a signed access token and its expiry.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// NewAccessToken signs an HS256 token carrying the user id as subject
// and the role claim.  Tokens are normally minted by the account
// service; this is used for local development and tests.
func NewAccessToken(secret string, clk clock.Clock, userID uint64, role model.Role, ttl time.Duration) (AccessToken, error) {
    now := clk.Now()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":  strconv.FormatUint(userID, 10),
        "role": string(role),
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccess validates raw and returns the actor it identifies.  The
// subject may be encoded as a string or a number.
func ParseAccess(secret string, clk clock.Clock, raw string) (model.Actor, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalid
        }
        return []byte(secret), nil
    }, jwt.WithTimeFunc(clk.Now))
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return model.Actor{}, ErrExpired
        }
        return model.Actor{}, fmt.Errorf("%w: %v", ErrInvalid, err)
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return model.Actor{}, ErrInvalid
    }
    // Check-in tokens carry an audience; access tokens never do.
    if _, scoped := claims["aud"]; scoped {
        return model.Actor{}, ErrInvalid
    }
    var userID uint64
    switch sub := claims["sub"].(type) {
    case string:
        userID, err = strconv.ParseUint(sub, 10, 64)
        if err != nil {
            return model.Actor{}, ErrInvalid
        }
    case float64:
        userID = uint64(sub)
    default:
        return model.Actor{}, ErrInvalid
    }
    if userID == 0 {
        return model.Actor{}, ErrInvalid
    }
    role, _ := claims["role"].(string)
    return model.Actor{UserID: userID, Role: model.ParseRole(role)}, nil
}
