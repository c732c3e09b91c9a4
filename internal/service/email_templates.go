package service

import (
	"fmt"
	"strings"
)

func welcomeEmailTemplate(username, galleryURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Share a story from your culture, or explore what others have shared:
%s

Best,
The %s Team`, username, galleryURL, appName)

	return subject, body
}

func badgeAwardedEmailTemplate(username string, badgeNames []string, profileURL, appName string) (string, string) {
	subject := fmt.Sprintf("You earned a new badge on %s", appName)
	if len(badgeNames) > 1 {
		subject = fmt.Sprintf("You earned %d new badges on %s", len(badgeNames), appName)
	}

	body := fmt.Sprintf(`Hi %s,

Congratulations! You earned:
- %s

See them on your profile: %s

Best,
The %s Team`, username, strings.Join(badgeNames, "\n- "), profileURL, appName)

	return subject, body
}
