// SPDX-FileCopyrightText: 2024 Tillitis AB <tillitis.se>
// SPDX-License-Identifier: BSD-2-Clause

package solana

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgersol/ledger-solana-go/ledger"
)

func init() {
	ledger.SilenceLogging()
}

type sentCmd struct {
	ins, p1, p2 byte
	data        []byte
}

// fakeApp plays the Solana app. Chunks with P2 MORE set are acked,
// the last chunk is answered with reply.
type fakeApp struct {
	sent  []sentCmd
	reply []byte
}

func (f *fakeApp) Send(cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	f.sent = append(f.sent, sentCmd{ins, p1, p2, bytes.Clone(data)})
	if p2&ledger.P2More != 0 {
		return []byte{0x90, 0x00}, nil
	}
	return f.reply, nil
}

func (f *fakeApp) body() []byte {
	var b []byte
	for _, c := range f.sent {
		b = append(b, c.data...)
	}
	return b
}

func newFakeApp(reply []byte) (*fakeApp, App) {
	f := &fakeApp{reply: reply}
	return f, New(ledger.New(f))
}

func TestGetPubkey(t *testing.T) {
	pubkey := bytes.Repeat([]byte{0x42}, PubkeySize)
	f, app := newFakeApp(append(bytes.Clone(pubkey), 0x90, 0x00))

	path, err := NewPath(0)
	require.NoError(t, err)

	got, err := app.GetPubkey(path)
	require.NoError(t, err)
	assert.Equal(t, pubkey, got)

	require.Len(t, f.sent, 1)
	assert.Equal(t, byte(0x05), f.sent[0].ins)
	assert.Equal(t, ledger.P1NonConfirm, f.sent[0].p1)
	assert.Equal(t, path.Bytes(), f.sent[0].data)
}

func TestGetAddressDisplay(t *testing.T) {
	f, app := newFakeApp([]byte{0x01, 0x90, 0x00})

	_, err := app.GetAddress(Path{}, true)
	require.NoError(t, err)

	require.Len(t, f.sent, 1)
	assert.Equal(t, byte(0x05), f.sent[0].ins)
	assert.Equal(t, ledger.P1Confirm, f.sent[0].p1)
}

func TestSignPayload(t *testing.T) {
	sig := bytes.Repeat([]byte{0x07}, SignatureSize)
	f, app := newFakeApp(append(bytes.Clone(sig), 0x90, 0x00))

	path, err := NewPath(1, 0, 3)
	require.NoError(t, err)
	message := []byte("serialized message")

	got, err := app.Sign(path, message)
	require.NoError(t, err)
	assert.Equal(t, sig, got)

	require.Len(t, f.sent, 1)
	assert.Equal(t, byte(0x06), f.sent[0].ins)
	assert.Equal(t, ledger.P1Confirm, f.sent[0].p1)

	want := append([]byte{0x01}, path.Bytes()...)
	want = append(want, message...)
	assert.Equal(t, want, f.sent[0].data)
}

func TestSignLongMessage(t *testing.T) {
	path, err := NewPath(0)
	require.NoError(t, err)

	// 1 + 13 + 586 = 600 bytes of payload
	message := bytes.Repeat([]byte{0xab}, 586)
	f, app := newFakeApp(append(make([]byte, SignatureSize), 0x90, 0x00))

	_, err = app.Sign(path, message)
	require.NoError(t, err)

	require.Len(t, f.sent, 3)
	assert.Equal(t, []byte{0x02, 0x03, 0x01}, []byte{f.sent[0].p2, f.sent[1].p2, f.sent[2].p2})
	assert.Len(t, f.sent[2].data, 90)
	for _, c := range f.sent {
		assert.Equal(t, ledger.P1Confirm, c.p1)
	}
	assert.Equal(t, signPayload(path, message), f.body())
}

func TestSignUserDenied(t *testing.T) {
	_, app := newFakeApp([]byte{0x69, 0x85})

	sig, err := app.Sign(Path{}, []byte{1, 2, 3})
	assert.Nil(t, sig)

	var devErr *ledger.DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, uint16(0x6985), devErr.StatusWord)
}

func TestSignOffchainMessage(t *testing.T) {
	f, app := newFakeApp(append(make([]byte, SignatureSize), 0x90, 0x00))

	_, err := app.SignOffchainMessage(Path{}, []byte("hello"))
	require.NoError(t, err)

	require.Len(t, f.sent, 1)
	assert.Equal(t, byte(0x07), f.sent[0].ins)
	assert.Equal(t, ledger.P1Confirm, f.sent[0].p1)
	assert.Equal(t, signPayload(Path{}, []byte("hello")), f.sent[0].data)
}

func TestGetAppConfiguration(t *testing.T) {
	f, app := newFakeApp([]byte{0x01, 0x00, 0x01, 0x04, 0x02, 0x90, 0x00})

	conf, err := app.GetAppConfiguration()
	require.NoError(t, err)
	assert.True(t, conf.BlindSigningEnabled)
	assert.Equal(t, byte(0), conf.PubkeyDisplayMode)
	assert.Equal(t, "1.4.2", conf.Version())

	require.Len(t, f.sent, 1)
	assert.Equal(t, byte(0x04), f.sent[0].ins)
	assert.Empty(t, f.sent[0].data)
}

func TestGetAppConfigurationShort(t *testing.T) {
	_, app := newFakeApp([]byte{0x01, 0x00, 0x90, 0x00})

	_, err := app.GetAppConfiguration()
	require.ErrorIs(t, err, ErrShortConfiguration)
}
