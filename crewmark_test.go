/*
Copyright 2025 Crewmark Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package crewmark

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/crewmark/crewmark/config"
	"github.com/crewmark/crewmark/database"
)

// mockObjectStore records uploads instead of talking to a bucket.
type mockObjectStore struct {
	mu      sync.Mutex
	uploads []string
	failing bool
}

func (m *mockObjectStore) Upload(_ context.Context, key string, body io.Reader, size int64, progress ProgressFunc) (string, error) {
	if m.failing {
		return "", fmt.Errorf("storage unavailable")
	}
	if body != nil {
		if _, err := io.Copy(io.Discard, body); err != nil {
			return "", err
		}
	}
	if progress != nil {
		progress(size/2, size)
		progress(size, size)
	}
	m.mu.Lock()
	m.uploads = append(m.uploads, key)
	m.mu.Unlock()
	return m.URL(key), nil
}

func (m *mockObjectStore) Delete(_ context.Context, _ string) error { return nil }

func (m *mockObjectStore) URL(key string) string {
	return "https://files.test/" + key
}

func (m *mockObjectStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.uploads...)
}

// newTestCrewmark wires a Crewmark instance around a mock datasource. The
// queue is real but idle: with no Typesense DNS and no webhook URL configured
// the post actions return before touching Redis.
func newTestCrewmark(ds database.IDataSource) (*Crewmark, *mockObjectStore) {
	config.MockConfig(&config.Configuration{
		Payout: config.PayoutConfig{Currency: "KRW", Rate: "1", MatchThreshold: intPtr(2)},
	})
	store := &mockObjectStore{}
	return &Crewmark{
		datasource: ds,
		queue:      &Queue{},
		storage:    store,
	}, store
}

func intPtr(v int) *int { return &v }
