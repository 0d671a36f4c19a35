/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package devicestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amused-dev/go-amused/pkg/transport"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "devices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	rec := Record{
		Name:     "Muse-ABCD",
		Address:  "00:55:da:b0:12:34",
		RSSI:     -60,
		LastSeen: time.Now().Truncate(time.Second),
	}
	require.NoError(t, s.Put(rec))

	got, err := s.Get(rec.Address)
	require.NoError(t, err)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.Address, got.Address)
	assert.Equal(t, rec.RSSI, got.RSSI)
	assert.True(t, rec.LastSeen.Equal(got.LastSeen))
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("aa:bb:cc:dd:ee:ff")
	require.Error(t, err)
	assert.IsType(t, ErrDeviceNotFound{}, err)
}

func TestPutDiscoveredAndList(t *testing.T) {
	s := openTestStore(t)

	infos := []transport.DeviceInfo{
		{Name: "Muse-AAAA", Address: "00:55:da:00:00:01", RSSI: -50, SeenAt: time.Now()},
		{Name: "Muse-BBBB", Address: "00:55:da:00:00:02", RSSI: -70, SeenAt: time.Now()},
	}
	require.NoError(t, s.PutDiscovered(infos))

	recs, err := s.List()
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRescanRefreshesRecord(t *testing.T) {
	s := openTestStore(t)

	addr := "00:55:da:00:00:03"
	require.NoError(t, s.Put(Record{Name: "Muse-CCCC", Address: addr, RSSI: -80}))
	require.NoError(t, s.Put(Record{Name: "Muse-CCCC", Address: addr, RSSI: -55}))

	recs, err := s.List()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int16(-55), recs[0].RSSI)
}

func TestPreferred(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Preferred()
	require.Error(t, err)
	assert.IsType(t, ErrNoPreferredDevice{}, err)

	err = s.SetPreferred("not-registered")
	require.Error(t, err)
	assert.IsType(t, ErrDeviceNotFound{}, err)

	addr := "00:55:da:00:00:04"
	require.NoError(t, s.Put(Record{Name: "Muse-DDDD", Address: addr}))
	require.NoError(t, s.SetPreferred(addr))

	got, err := s.Preferred()
	require.NoError(t, err)
	assert.Equal(t, addr, got.Address)
}
