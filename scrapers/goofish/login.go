package goofish

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/fish-scout/scrapers/base"
	log "github.com/sirupsen/logrus"
)

const (
	loginText        = "登录"
	loginNowText     = "立即登录"
	pleaseLoginText  = "请登录"
	loginControlsCSS = ".login-btn, [class*='login']"
)

// LoginState says whether the search page is asking the user to sign in
type LoginState struct {
	Required bool
	// Reason names the rule that matched
	Reason string
}

// DetectLogin inspects a rendered page for a login prompt
func DetectLogin(html string) LoginState {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return LoginState{}
	}

	if doc.Find(loginControlsCSS).Length() > 0 {
		return LoginState{Required: true, Reason: "login control"}
	}

	found := false
	doc.Find("a, button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		found = strings.Contains(text, loginText)
		return !found
	})
	if found {
		return LoginState{Required: true, Reason: "login link"}
	}

	if strings.Contains(html, loginText) && (strings.Contains(html, loginNowText) || strings.Contains(html, pleaseLoginText)) {
		return LoginState{Required: true, Reason: "login text"}
	}
	return LoginState{}
}

// LoginPromptVisible reports whether any visible text still reads 登录
func LoginPromptVisible(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Contains(doc.Find("body").Text(), loginText)
}

// WaitForLogin polls the page until the login prompt disappears or the
// window is closed. It returns false when the wait times out.
func (s *Scraper) WaitForLogin(ctx context.Context, page base.Page) (bool, error) {
	poll := s.cfg.LoginPoll
	ticks := int(s.cfg.LoginTimeout / poll)
	reminderEvery := int(s.cfg.LoginReminder / poll)

	for i := 1; i <= ticks; i++ {
		if err := s.sleep(ctx, poll); err != nil {
			return false, err
		}

		if page.Closed() {
			log.Info("[LOGIN] Browser window closed, assuming login finished")
			return true, nil
		}

		html, err := page.HTML(ctx)
		if err != nil {
			log.Debugf("[LOGIN] page not readable yet: %v", err)
		} else if !LoginPromptVisible(html) {
			log.Info("[LOGIN] Login prompt gone, login looks successful")
			if err := base.SaveSession(ctx, page, s.cfg.SessionFile); err != nil {
				log.Warnf("[SESSION] %v", err)
			}
			return true, nil
		}

		if reminderEvery > 0 && i%reminderEvery == 0 && i < ticks {
			remaining := s.cfg.LoginTimeout - poll*time.Duration(i)
			log.Infof("[LOGIN] Still waiting for login (about %d min left)", int(remaining.Minutes()))
		}
	}

	log.Warn("[LOGIN] Timed out waiting for login, scraping anyway")
	return false, nil
}

func printLoginInstructions() {
	log.Info("[LOGIN] " + strings.Repeat("=", 50))
	log.Info("[LOGIN] This search needs a signed-in Goofish account")
	log.Info("[LOGIN]   1. Click the login button in the browser window")
	log.Info("[LOGIN]   2. Sign in (scan the QR code or use your password)")
	log.Info("[LOGIN]   3. Close the window or wait; scraping resumes on its own")
	log.Info("[LOGIN] " + strings.Repeat("=", 50))
}
