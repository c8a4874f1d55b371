// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dunctk/whitepaper-to-socials/internal/secrets"
	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// setting resolves one string setting: explicit flag, then environment
// variable, then config file, then fallback.
func setting(cmd *cobra.Command, flag, envKey, viperKey, fallback string) string {
	if flag != "" && cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if envKey != "" {
		if v := os.Getenv(envKey); v != "" {
			return v
		}
	}
	if viperKey != "" {
		if v := viper.GetString(viperKey); v != "" {
			return v
		}
	}
	return fallback
}

// buildConfig assembles the pipeline configuration for a generate run.
func buildConfig(cmd *cobra.Command) types.PipelineConfig {
	workDir := setting(cmd, "workdir", "", "conversion.work_dir", "work")
	testMode, _ := cmd.Flags().GetBool("test")

	cfg := types.PipelineConfig{
		AI: types.AIConfig{
			Model:  setting(cmd, "model", "OPENAI_MODEL", "ai.model", "gpt-4.1"),
			APIKey: secrets.Resolve(loadedSecrets, "OPENAI_API_KEY", "openai-api-key"),
		},
		NocoDB: types.NocoDBConfig{
			HTTPConfig: types.HTTPConfig{
				UserAgent: "whitepaper-to-socials/" + version,
			},
			BaseURL: setting(cmd, "", "NOCODB_BASE_URL", "nocodb.base_url", ""),
			APIKey:  secrets.Resolve(loadedSecrets, "NOCODB_API_KEY", "nocodb-api-key"),
			TableID: setting(cmd, "nocodb-table", "NOCODB_TABLE_ID", "nocodb.table_id", ""),
			BaseID:  setting(cmd, "", "NOCODB_BASE_ID", "nocodb.base_id", ""),
		},
		Conversion: types.ConversionConfig{
			Backend: types.ConversionBackend(setting(cmd, "backend", "", "conversion.backend", string(types.BackendContainer))),
			WorkDir: workDir,
		},
		Images: types.ImagesConfig{
			Backend: types.ExtractorBackend(setting(cmd, "extractor", "", "images.backend", string(types.ExtractorEmbedded))),
			Dir:     setting(cmd, "images-dir", "", "images.dir", filepath.Join(workDir, "images")),
		},
		StatePath:      setting(cmd, "state", "", "state_path", "state.db"),
		WhitepaperName: setting(cmd, "name", "WHITEPAPER_NAME", "whitepaper_name", ""),
		TestMode:       testMode,
	}
	return cfg
}
