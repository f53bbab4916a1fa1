// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conf

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-arcade/userinfo/pkg/httpx"
	"github.com/go-arcade/userinfo/pkg/log"
	"github.com/go-arcade/userinfo/pkg/sso/oauth"
	"github.com/go-arcade/userinfo/pkg/trace"
	"github.com/go-arcade/userinfo/pkg/version"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. USERINFO_PROVIDER_USER_INFO_URI.
const EnvPrefix = "USERINFO"

type AppConfig struct {
	Log      log.Conf
	Http     httpx.ClientConf
	Provider oauth.ServiceProperties
	Trace    trace.Conf
}

// paramsFile mirrors the part of the file whose keys must keep their case.
type paramsFile struct {
	Provider struct {
		AdditionalInfoParams map[string]string `toml:"additional_info_params"`
	} `toml:"provider"`
}

// LoadConfigFile reads the toml file at path, applies defaults and USERINFO_* overrides.
//
// Keys are case-insensitive except the names under [provider.additional_info_params],
// which are sent to the provider exactly as written.
func LoadConfigFile(path string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	for _, key := range []string{"provider.user_info_uri", "provider.access_token_name"} {
		if err := v.BindEnv(key); err != nil {
			return AppConfig{}, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return AppConfig{}, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}

	params, err := readAdditionalInfoParams(path)
	if err != nil {
		return AppConfig{}, err
	}
	c.Provider.AdditionalInfoParams = params
	return c, nil
}

// readAdditionalInfoParams decodes [provider.additional_info_params] again with
// go-toml, since viper lowercases every map key.
func readAdditionalInfoParams(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	var f paramsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode provider.additional_info_params: %w", err)
	}
	return f.Provider.AdditionalInfoParams, nil
}

func setDefaults(v *viper.Viper) {
	d := log.SetDefaults()
	v.SetDefault("log.output", d.Output)
	v.SetDefault("log.path", d.Path)
	v.SetDefault("log.filename", d.Filename)
	v.SetDefault("log.level", d.Level)
	v.SetDefault("log.keephours", d.KeepHours)
	v.SetDefault("log.rotatesize", d.RotateSize)
	v.SetDefault("log.rotatenum", d.RotateNum)

	v.SetDefault("http.timeout", "0s")
	v.SetDefault("http.useragent", version.UserAgent())
	v.SetDefault("http.followredirects", false)
	v.SetDefault("http.debug", false)

	t := trace.SetDefaults()
	v.SetDefault("trace.enabled", t.Enabled)
	v.SetDefault("trace.protocol", t.Protocol)
	v.SetDefault("trace.endpoint", t.Endpoint)
	v.SetDefault("trace.insecure", t.Insecure)
	v.SetDefault("trace.servicename", t.ServiceName)
	v.SetDefault("trace.exporttimeout", t.ExportTimeout)
}
