// Package links signs and verifies customer download links for QR bills.
package links

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/o1egl/paseto"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const issuer = "switzbillz"

// Claims are the contents of a download token.
type Claims struct {
	OrderID    int64     `json:"order_id"`
	CustomerID int64     `json:"customer_id"`
	IssuedAt   time.Time `json:"iat"`
	ExpiresAt  time.Time `json:"exp"`
	Issuer     string    `json:"iss"`
}

// Signer creates and verifies PASETO v2.local download tokens.
type Signer struct {
	key []byte
	ttl time.Duration
	v2  *paseto.V2
	now func() time.Time
}

// NewSigner creates a new signer. key must be exactly 32 bytes.
func NewSigner(key string, ttl time.Duration) (*Signer, error) {
	if len(key) != 32 {
		return nil, errors.New("link signing key must be exactly 32 bytes")
	}
	return &Signer{
		key: []byte(key),
		ttl: ttl,
		v2:  paseto.NewV2(),
		now: time.Now,
	}, nil
}

// Sign returns a token granting access to the QR bill of an order.
func (s *Signer) Sign(orderID, customerID int64) (string, error) {
	now := s.now()
	claims := Claims{
		OrderID:    orderID,
		CustomerID: customerID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
		Issuer:     issuer,
	}

	token, err := s.v2.Encrypt(s.key, claims, nil)
	if err != nil {
		return "", fmt.Errorf("failed to sign link: %w", err)
	}
	return token, nil
}

// Verify decrypts a token and checks its expiry.
func (s *Signer) Verify(token string) (*Claims, error) {
	var claims Claims
	if err := s.v2.Decrypt(token, s.key, &claims, nil); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}
	if s.now().After(claims.ExpiresAt) {
		return nil, ErrExpiredToken
	}
	return &claims, nil
}

// VerifyOrder checks that token grants access to orderID.
func (s *Signer) VerifyOrder(token string, orderID int64) (*Claims, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.OrderID != orderID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DownloadPath is the front office route serving QR bill downloads.
const DownloadPath = "/module/switzbillz/downloadQrBill"

// DownloadURL returns the customer download link of an order.
func DownloadURL(baseURL string, orderID int64, token string) string {
	q := url.Values{}
	q.Set("orderId", strconv.FormatInt(orderID, 10))
	q.Set("token", token)
	return strings.TrimRight(baseURL, "/") + DownloadPath + "?" + q.Encode()
}

// SignedDownloadURL signs a token for the order and returns its download link.
func (s *Signer) SignedDownloadURL(baseURL string, orderID, customerID int64) (string, error) {
	token, err := s.Sign(orderID, customerID)
	if err != nil {
		return "", err
	}
	return DownloadURL(baseURL, orderID, token), nil
}
