package auth

// TokenStore defines the interface for token storage operations
// This allows us to mock the keyring in tests
type TokenStore interface {
	SaveToken(backendURL, token string) error
	LoadToken(backendURL string) (string, error)
	DeleteToken(backendURL string) error
}

// defaultTokenStore implements TokenStore using the OS keyring
type defaultTokenStore struct{}

var Default TokenStore = &defaultTokenStore{}

func (d *defaultTokenStore) SaveToken(backendURL, token string) error {
	return SaveToken(backendURL, token)
}

func (d *defaultTokenStore) LoadToken(backendURL string) (string, error) {
	return LoadToken(backendURL)
}

func (d *defaultTokenStore) DeleteToken(backendURL string) error {
	return DeleteToken(backendURL)
}
