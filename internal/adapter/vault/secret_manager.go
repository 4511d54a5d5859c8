package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

type SecretManager struct {
	client *api.Client
}

func NewSecretManager(address, token string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client}, nil
}

func (sm *SecretManager) GetDatabaseCredentials() (string, error) {
	secret, err := sm.client.Logical().Read("secret/data/database")
	if err != nil {
		return "", err
	}

	data := secret.Data["data"].(map[string]interface{})
	return data["connection_string"].(string), nil
}

// GetChargerSharedSecret returns the HTTP Basic Auth password configured for
// a charge point under OCPP security profile 2/3, used by the socket carrier
// to authenticate the WebSocket upgrade.
func (sm *SecretManager) GetChargerSharedSecret(chargerID string) (string, error) {
	secret, err := sm.client.Logical().Read(fmt.Sprintf("secret/data/chargers/%s", chargerID))
	if err != nil {
		return "", err
	}
	if secret == nil {
		return "", fmt.Errorf("vault: no secret found for charger %s", chargerID)
	}

	data := secret.Data["data"].(map[string]interface{})
	return data["shared_secret"].(string), nil
}
