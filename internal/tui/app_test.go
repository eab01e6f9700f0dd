package tui

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akio-byte/joulun-tonttu-me/internal/capture"
	"github.com/akio-byte/joulun-tonttu-me/internal/certificate"
	"github.com/akio-byte/joulun-tonttu-me/internal/wizard"
	"github.com/akio-byte/joulun-tonttu-me/pkg/badge"
	"github.com/akio-byte/joulun-tonttu-me/pkg/client"
	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

func testPhoto(t *testing.T) domain.Image {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 24))); err != nil {
		t.Fatal(err)
	}
	return domain.Image{MIME: "image/png", Data: buf.Bytes()}
}

type fakeDevice struct {
	mu     sync.Mutex
	frame  domain.Image
	opens  int
	closes int
}

func (d *fakeDevice) Open(context.Context) (capture.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	return &fakeStream{dev: d}, nil
}

func (d *fakeDevice) counts() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens, d.closes
}

type fakeStream struct {
	dev    *fakeDevice
	closed bool
}

func (s *fakeStream) Snapshot(context.Context) (domain.Image, error) {
	return s.dev.frame, nil
}

func (s *fakeStream) Close() error {
	if !s.closed {
		s.closed = true
		s.dev.mu.Lock()
		s.dev.closes++
		s.dev.mu.Unlock()
	}
	return nil
}

type stubGenerator struct {
	result domain.PersonalizationResult
}

func (g stubGenerator) Personalize(_ context.Context, req client.PersonalizeRequest) domain.PersonalizationResult {
	if g.result.Title == "" {
		return client.Fallback(req)
	}
	return g.result
}

type fakeIssuer struct {
	calls int
	got   badge.Recipient
	res   badge.Result
}

func (f *fakeIssuer) Issue(_ context.Context, r badge.Recipient) badge.Result {
	f.calls++
	f.got = r
	return f.res
}

type fixture struct {
	dev    *fakeDevice
	issuer *fakeIssuer
	opened []string
	copied []string
	outDir string
}

func newTestApp(t *testing.T) (App, *fixture) {
	t.Helper()
	fx := &fixture{
		dev:    &fakeDevice{frame: testPhoto(t)},
		issuer: &fakeIssuer{res: badge.Result{TemplateID: "tmpl"}},
		outDir: t.TempDir(),
	}
	r, err := certificate.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	photo := testPhoto(t)
	a := NewApp(nil, Deps{
		Generator: stubGenerator{result: domain.PersonalizationResult{
			Image:       photo,
			Title:       "Piparitaikuri",
			Description: "Tuoksut kanelilta.",
			Score:       9,
		}},
		Capture:   capture.NewSession(fx.dev, nil),
		Renderer:  r,
		Issuer:    fx.issuer,
		OutputDir: fx.outDir,
		Open:      func(p string) error { fx.opened = append(fx.opened, p); return nil },
		Copy:      func(p string) error { fx.copied = append(fx.copied, p); return nil },
		Now:       func() time.Time { return time.Date(2025, 12, 12, 0, 0, 0, 0, time.UTC) },
	})
	a.width = 100
	a.height = 40
	return a, fx
}

// drain runs cmd and feeds the kiosk's own messages back into the app until
// nothing is left. Timer, blink and quit messages are dropped.
func drain(a App, cmd tea.Cmd) App {
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0 && i < 100; i++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case identitySubmittedMsg, wishSubmittedMsg, photoConfirmedMsg, backMsg, restartMsg,
			captureAcquiredMsg, photoCapturedMsg, generatedMsg, certificateRenderedMsg,
			certificateOpenedMsg, pathCopiedMsg, badgeIssuedMsg:
			m, next := a.Update(msg)
			a = m.(App)
			queue = append(queue, next)
		}
	}
	return a
}

func press(a App, k tea.KeyMsg) App {
	m, cmd := a.Update(k)
	return drain(m.(App), cmd)
}

func typeText(a App, s string) App {
	return press(a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyCtrlR = tea.KeyMsg{Type: tea.KeyCtrlR}
)

func toPhoto(t *testing.T, a App, email string) App {
	t.Helper()
	a = typeText(a, "Aino")
	a = press(a, keyEnter)
	a = typeText(a, email)
	a = press(a, keyEnter)
	if a.machine.State() != wizard.StateCollectWish {
		t.Fatalf("after identity: state = %s", a.machine.State())
	}
	a = typeText(a, "matka Lappiin")
	a = press(a, keyEnter)
	if a.machine.State() != wizard.StateCapturePhoto {
		t.Fatalf("after wish: state = %s", a.machine.State())
	}
	return a
}

func toResults(t *testing.T, a App, email string) App {
	t.Helper()
	a = toPhoto(t, a, email)
	a = press(a, keySpace)
	a = press(a, keyEnter)
	if a.machine.State() != wizard.StateResults {
		t.Fatalf("after photo: state = %s", a.machine.State())
	}
	return a
}

func TestAppFullFlow(t *testing.T) {
	a, fx := newTestApp(t)
	if !strings.Contains(a.View(), "Vaihe 1 / 5") {
		t.Errorf("progress missing on first step:\n%s", a.View())
	}

	a = toResults(t, a, "aino@example.fi")

	rec := a.machine.Record()
	if rec.Result == nil || rec.Result.Title != "Piparitaikuri" {
		t.Fatalf("result = %+v", rec.Result)
	}
	if rec.FreeformWish != "matka Lappiin" || rec.ParticipantEmail != "aino@example.fi" {
		t.Errorf("record = %+v", rec)
	}
	if opens, closes := fx.dev.counts(); opens != 1 || closes != 1 {
		t.Errorf("device opens=%d closes=%d, want 1/1", opens, closes)
	}
	view := a.View()
	for _, want := range []string{"Vaihe 5 / 5", "Piparitaikuri", "Tonttupisteet: 9/10"} {
		if !strings.Contains(view, want) {
			t.Errorf("results view missing %q", want)
		}
	}
}

func TestAppIdentityValidation(t *testing.T) {
	a, _ := newTestApp(t)
	a = typeText(a, "A")
	a = press(a, keyEnter)
	a = press(a, keyEnter)

	if a.machine.State() != wizard.StateCollectIdentity {
		t.Fatalf("state = %s, want identity", a.machine.State())
	}
	if !strings.Contains(a.View(), "vähintään 2 merkkiä") {
		t.Errorf("validation message missing:\n%s", a.View())
	}
}

func TestAppBackKeepsValues(t *testing.T) {
	a, fx := newTestApp(t)
	a = toPhoto(t, a, "")

	a = press(a, keyEsc)
	if a.machine.State() != wizard.StateCollectWish {
		t.Fatalf("state = %s, want wish", a.machine.State())
	}
	if opens, closes := fx.dev.counts(); opens != closes {
		t.Errorf("device not released on back: opens=%d closes=%d", opens, closes)
	}
	if got := a.wish.area.Value(); got != "matka Lappiin" {
		t.Errorf("wish = %q", got)
	}

	a = press(a, keyEsc)
	if a.machine.State() != wizard.StateCollectIdentity {
		t.Fatalf("state = %s, want identity", a.machine.State())
	}
	if got := a.identity.fields[identityName].Value(); got != "Aino" {
		t.Errorf("name = %q", got)
	}
}

func TestAppRetakeReleasesDevice(t *testing.T) {
	a, fx := newTestApp(t)
	a = toPhoto(t, a, "")

	a = press(a, keySpace)
	if a.photo.photo.IsZero() {
		t.Fatal("no photo after capture")
	}
	a = press(a, runes("r"))
	if !a.photo.photo.IsZero() {
		t.Error("photo kept after retake")
	}
	if opens, closes := fx.dev.counts(); opens != 2 || closes != 1 {
		t.Errorf("opens=%d closes=%d, want 2/1", opens, closes)
	}

	a = press(a, keyCtrlR)
	if opens, closes := fx.dev.counts(); opens != closes {
		t.Errorf("device not released on restart: opens=%d closes=%d", opens, closes)
	}
	if a.machine.State() != wizard.StateCollectIdentity {
		t.Errorf("state = %s after restart", a.machine.State())
	}
}

func TestAppRestartRefusedWhileGenerating(t *testing.T) {
	a, _ := newTestApp(t)
	a = toPhoto(t, a, "")

	m, _ := a.Update(photoConfirmedMsg{photo: testPhoto(t)})
	a = m.(App)
	if a.machine.State() != wizard.StateGenerate {
		t.Fatalf("state = %s, want generate", a.machine.State())
	}

	a = press(a, keyCtrlR)
	if a.machine.State() != wizard.StateGenerate {
		t.Errorf("restart allowed during generation")
	}
	if !strings.Contains(a.View(), "kesken") {
		t.Errorf("notice missing:\n%s", a.View())
	}
}

// toWishSubmitted fills identity and wish and returns the pending device
// acquisition without running it.
func toWishSubmitted(t *testing.T, a App) (App, tea.Cmd) {
	t.Helper()
	a = typeText(a, "Aino")
	a = press(a, keyEnter)
	a = press(a, keyEnter)
	a = typeText(a, "lunta")
	m, cmd := a.Update(keyEnter)
	a = m.(App)
	m, acquire := a.Update(cmd())
	a = m.(App)
	if a.machine.State() != wizard.StateCapturePhoto {
		t.Fatalf("state = %s, want photo", a.machine.State())
	}
	return a, acquire
}

func TestAppRestartReleasesLateAcquire(t *testing.T) {
	a, fx := newTestApp(t)
	a, acquire := toWishSubmitted(t, a)

	a = press(a, keyCtrlR)
	if a.machine.State() != wizard.StateCollectIdentity {
		t.Fatalf("state = %s after restart", a.machine.State())
	}

	m, _ := a.Update(acquire())
	a = m.(App)
	if a.deps.Capture.Active() {
		t.Error("device still held after leaving the capture step")
	}
	if opens, closes := fx.dev.counts(); opens != 1 || closes != 1 {
		t.Errorf("opens=%d closes=%d, want 1/1", opens, closes)
	}
}

func TestAppRestartReleasesLateCapture(t *testing.T) {
	a, fx := newTestApp(t)
	a = toPhoto(t, a, "")

	m, snap := a.Update(keySpace)
	a = m.(App)
	a = press(a, keyCtrlR)

	m, _ = a.Update(snap())
	a = m.(App)
	if a.deps.Capture.Active() {
		t.Error("device reopened by a capture that finished after restart")
	}
	if opens, closes := fx.dev.counts(); opens != closes {
		t.Errorf("opens=%d closes=%d, want equal", opens, closes)
	}
	if !a.photo.photo.IsZero() {
		t.Error("late photo attached to the new session")
	}
}

func TestAppIgnoresPreviousSessionCapture(t *testing.T) {
	a, _ := newTestApp(t)
	a, acquire := toWishSubmitted(t, a)
	a = press(a, keyCtrlR)
	stale := acquire()

	a = toPhoto(t, a, "")
	m, _ := a.Update(stale)
	a = m.(App)
	if !a.deps.Capture.Active() {
		t.Error("current photo step lost the device")
	}
	if a.photo.busy {
		t.Error("photo step left busy")
	}
}

func TestAppRestartRefusedWhileResultsBusy(t *testing.T) {
	a, fx := newTestApp(t)
	a = toResults(t, a, "")

	m, render := a.Update(runes("p"))
	a = m.(App)
	a = press(a, keyCtrlR)
	if a.machine.State() != wizard.StateResults {
		t.Fatalf("restart allowed while rendering: state = %s", a.machine.State())
	}
	if !strings.Contains(a.View(), "vielä kesken") {
		t.Errorf("notice missing:\n%s", a.View())
	}

	a = drain(a, render)
	want := filepath.Join(fx.outDir, "joulun-osaaja-aino.png")
	if a.results.certPath != want {
		t.Errorf("certPath = %q, want %q", a.results.certPath, want)
	}
	a = press(a, keyCtrlR)
	if a.machine.State() != wizard.StateCollectIdentity {
		t.Errorf("restart refused after the action settled: state = %s", a.machine.State())
	}
}

func TestAppFallbackWhenGeneratorMissing(t *testing.T) {
	a, _ := newTestApp(t)
	a.deps.Generator = nil
	a = toResults(t, a, "")

	res := a.machine.Record().Result
	if res == nil || !res.IsFallback || res.Title != client.FallbackTitle {
		t.Fatalf("result = %+v, want fallback", res)
	}
	if !strings.Contains(a.View(), "varatulos") {
		t.Error("fallback marker missing from view")
	}
}

func TestResultsActions(t *testing.T) {
	a, fx := newTestApp(t)
	a = toResults(t, a, "aino@example.fi")

	a = press(a, runes("o"))
	if len(fx.opened) != 0 {
		t.Fatal("opened before rendering")
	}

	a = press(a, runes("p"))
	want := filepath.Join(fx.outDir, "joulun-osaaja-aino.png")
	if a.results.certPath != want {
		t.Fatalf("certPath = %q, want %q", a.results.certPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("certificate not written: %v", err)
	}

	a = press(a, runes("o"))
	a = press(a, runes("c"))
	if len(fx.opened) != 1 || fx.opened[0] != want {
		t.Errorf("opened = %v", fx.opened)
	}
	if len(fx.copied) != 1 || fx.copied[0] != want {
		t.Errorf("copied = %v", fx.copied)
	}

	if !strings.Contains(a.results.helpKeys(), "lähetä merkki") {
		t.Error("badge action hidden before sending")
	}
	a = press(a, runes("b"))
	if fx.issuer.calls != 1 || fx.issuer.got.Email != "aino@example.fi" || fx.issuer.got.Name != "Aino" {
		t.Errorf("issuer calls=%d got=%+v", fx.issuer.calls, fx.issuer.got)
	}
	if strings.Contains(a.results.helpKeys(), "lähetä merkki") {
		t.Error("badge action still offered after success")
	}
	a = press(a, runes("b"))
	if fx.issuer.calls != 1 {
		t.Errorf("badge sent twice")
	}
}

func TestResultsBadgeFailureAllowsRetry(t *testing.T) {
	a, fx := newTestApp(t)
	fx.issuer.res = badge.Result{Failure: badge.FailureAuth}
	a = toResults(t, a, "aino@example.fi")

	a = press(a, runes("b"))
	if !strings.Contains(a.View(), "kirjautuminen epäonnistui") {
		t.Errorf("auth failure not shown:\n%s", a.View())
	}
	a = press(a, runes("b"))
	if fx.issuer.calls != 2 {
		t.Errorf("calls = %d, want 2", fx.issuer.calls)
	}
}

func TestResultsBadgeHiddenWithoutEmail(t *testing.T) {
	a, fx := newTestApp(t)
	a = toResults(t, a, "")

	if strings.Contains(a.results.helpKeys(), "lähetä merkki") {
		t.Error("badge offered without email")
	}
	press(a, runes("b"))
	if fx.issuer.calls != 0 {
		t.Error("issuer called without email")
	}
}

func TestResultsBadgeHiddenWhenNotReady(t *testing.T) {
	a, _ := newTestApp(t)
	a.deps.Issuer = nil
	a = toResults(t, a, "aino@example.fi")
	if a.results.badgeAvailable() {
		t.Error("badge offered without issuer")
	}
}

func TestResultsIgnoresKeysWhileBusy(t *testing.T) {
	a, _ := newTestApp(t)
	a = toResults(t, a, "")
	a.results.busy = actionRender

	m, cmd := a.Update(runes("p"))
	if cmd != nil {
		t.Error("action started while another is in flight")
	}
	if m.(App).results.certPath != "" {
		t.Error("certificate rendered while busy")
	}
}

func TestAppRestartFromResults(t *testing.T) {
	a, _ := newTestApp(t)
	a = toResults(t, a, "aino@example.fi")
	session := a.machine.SessionID()

	a = press(a, runes("r"))
	if a.machine.State() != wizard.StateCollectIdentity {
		t.Fatalf("state = %s", a.machine.State())
	}
	if a.machine.SessionID() == session {
		t.Error("session id not renewed")
	}
	if a.identity.fields[identityName].Value() != "" {
		t.Error("identity not cleared")
	}
	if rec := a.machine.Record(); rec.ParticipantName != "" || rec.HasPhoto() || rec.Result != nil {
		t.Errorf("record not cleared: %+v", rec)
	}
}

func TestAppQuitReleasesDevice(t *testing.T) {
	a, fx := newTestApp(t)
	a = toPhoto(t, a, "")

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if opens, closes := fx.dev.counts(); opens != closes {
		t.Errorf("device held after quit: opens=%d closes=%d", opens, closes)
	}
}
