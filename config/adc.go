// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"log"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// ResolveAPIKey fills APIKey through Application Default Credentials when it
// is empty and an ADC key name is configured.
func (c *Config) ResolveAPIKey(ctx context.Context) error {
	if c.APIKey != "" || c.ADCKeyName == "" {
		return nil
	}

	log.Printf("%s is not set. Attempting to retrieve %q via ADC...", EnvAPIKey, c.ADCKeyName)

	key, err := LookupAPIKeyFromADC(ctx, c.ADCProject, c.ADCKeyName)
	if err != nil {
		return fmt.Errorf("retrieving API key via ADC: %w", err)
	}

	log.Println("Retrieved API key via ADC")

	c.APIKey = key

	return nil
}

// LookupAPIKeyFromADC finds the API Keys resource with the given display name
// and returns its secret. An empty projectID means the project of the
// default credentials.
func LookupAPIKeyFromADC(ctx context.Context, projectID, displayName string) (string, error) {
	if projectID == "" {
		creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return "", fmt.Errorf("finding default credentials: %w", err)
		}

		projectID = creds.ProjectID
	}

	if projectID == "" {
		return "", errors.New("no project in the default credentials; set --adc-project")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.GetDisplayName() != displayName {
			continue
		}

		// ListKeys redacts the secret.
		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.GetName()})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.GetKeyString() == "" {
			return "", fmt.Errorf("key %q found but its key string is empty", displayName)
		}

		return resp.GetKeyString(), nil
	}

	return "", fmt.Errorf("key with display name %q not found in project %s", displayName, projectID)
}
