package v1

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	apierrors "github.com/fayaz1010/Iqra/server/internal/errors"
	"github.com/fayaz1010/Iqra/server/service/progress"
)

const atomContentType = "application/atom+xml; charset=utf-8"

// ListNotifications returns the learner's notifications, newest first.
// GET /api/v1/users/:user/notifications?unread=&limit=
func (s *APIV1Service) ListNotifications(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	limit, err := notificationLimit(c)
	if err != nil {
		return err
	}
	unreadOnly := false
	if raw := c.QueryParam("unread"); raw != "" {
		if unreadOnly, err = strconv.ParseBool(raw); err != nil {
			return apierrors.InvalidArgument("invalid unread").WithContext("unread", raw)
		}
	}

	list, err := s.ProgressService.ListNotifications(c.Request().Context(), user, unreadOnly, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// POST /api/v1/users/:user/notifications/:id/read
func (s *APIV1Service) MarkNotificationRead(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return apierrors.InvalidArgument("invalid notification id").WithContext("id", c.Param("id"))
	}

	n, err := s.ProgressService.MarkNotificationRead(c.Request().Context(), user, int32(id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

// GetNotificationFeed renders the learner's notifications as an Atom feed.
// GET /api/v1/users/:user/notifications.atom
func (s *APIV1Service) GetNotificationFeed(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	limit, err := notificationLimit(c)
	if err != nil {
		return err
	}
	list, err := s.ProgressService.ListNotifications(c.Request().Context(), user, false, limit)
	if err != nil {
		return err
	}

	atom, err := s.generateNotificationFeed(user, list).ToAtom()
	if err != nil {
		return fmt.Errorf("failed to render atom feed: %w", err)
	}
	return c.Blob(http.StatusOK, atomContentType, []byte(atom))
}

func (s *APIV1Service) generateNotificationFeed(user string, list []*progress.Notification) *feeds.Feed {
	baseURL := strings.TrimSuffix(s.Profile.InstanceURL, "/")
	feed := &feeds.Feed{
		Title:       "Iqra notifications for " + user,
		Link:        &feeds.Link{Href: baseURL + "/api/v1/users/" + user + "/notifications"},
		Description: "Achievements, challenges and review reminders",
		Created:     time.Now(),
		Items:       make([]*feeds.Item, 0, len(list)),
	}
	for _, n := range list {
		created := time.Unix(n.CreatedTs, 0)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          n.UID,
			Title:       n.Title,
			Description: n.Message,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/v1/users/%s/notifications#%s", baseURL, user, n.UID)},
			Created:     created,
			Updated:     created,
		})
	}
	if len(list) > 0 {
		feed.Created = time.Unix(list[0].CreatedTs, 0)
	}
	return feed
}

func notificationLimit(c echo.Context) (int, error) {
	limit, err := intQueryParam(c, "limit", defaultNotificationLimit)
	if err != nil {
		return 0, err
	}
	if limit <= 0 || limit > maxNotificationLimit {
		return 0, apierrors.InvalidArgument(fmt.Sprintf("limit must be between 1 and %d", maxNotificationLimit))
	}
	return limit, nil
}
