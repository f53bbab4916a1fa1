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

package httpx

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/wire"
)

// ProviderSet provides the shared outbound client.
var ProviderSet = wire.NewSet(NewClient)

const maxRedirects = 10

// ClientConf configures the outbound HTTP client.
type ClientConf struct {
	// Timeout is the whole-request timeout. Zero keeps the client default (no timeout).
	Timeout         time.Duration
	UserAgent       string
	FollowRedirects bool
	Debug           bool
}

// NewClient builds a resty client from conf. A nil conf yields the defaults.
//
// Redirects are not followed unless asked for, so a 3xx reaches the caller as-is.
func NewClient(conf *ClientConf) *resty.Client {
	if conf == nil {
		conf = &ClientConf{}
	}

	client := resty.New()
	if conf.Timeout > 0 {
		client.SetTimeout(conf.Timeout)
	}
	if conf.UserAgent != "" {
		client.SetHeader("User-Agent", conf.UserAgent)
	}
	if conf.FollowRedirects {
		client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	} else {
		client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	}
	client.SetDebug(conf.Debug)

	return client
}
