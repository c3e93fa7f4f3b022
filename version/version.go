// Package version provides unified mechanisms for application version tracking, update discovery, and compatibility validation.
package version

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kiroku-media/kiroku/network"
)

// Latest retrieves the most recent published release tag from the project repository.
func Latest() (string, error) {
	resp, err := network.Client.Get("https://api.github.com/repos/kiroku-media/kiroku/releases/latest")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("invalid response code %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	return strings.TrimPrefix(release.TagName, "v"), nil
}
