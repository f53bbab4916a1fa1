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

package oauth

import "maps"

// ServiceProperties describes how to reach a provider's user-info endpoint.
type ServiceProperties struct {
	// UserInfoURI is the absolute URL of the user-info endpoint.
	UserInfoURI string `mapstructure:"user_info_uri"`
	// AccessTokenName is the query parameter carrying the access token.
	AccessTokenName string `mapstructure:"access_token_name"`
	// AdditionalInfoParams are sent verbatim as extra query parameters.
	AdditionalInfoParams map[string]string `mapstructure:"additional_info_params"`
}

// Validate checks that the required properties are present. URL shape is not checked.
func (p *ServiceProperties) Validate() error {
	if p == nil {
		return ErrPropertiesRequired
	}
	if p.UserInfoURI == "" {
		return ErrUserInfoURIRequired
	}
	if p.AccessTokenName == "" {
		return ErrAccessTokenNameRequired
	}
	return nil
}

func (p *ServiceProperties) clone() *ServiceProperties {
	return &ServiceProperties{
		UserInfoURI:          p.UserInfoURI,
		AccessTokenName:      p.AccessTokenName,
		AdditionalInfoParams: maps.Clone(p.AdditionalInfoParams),
	}
}
