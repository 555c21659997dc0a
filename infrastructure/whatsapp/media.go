package whatsapp

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/crmkit/wabridge/config"
	"github.com/crmkit/wabridge/pkg/utils"
)

// storeMedia downloads the encrypted attachment and re-hosts it in object
// storage under {org}/{conversation}/{message id}. Any failure degrades to a
// text-only record; the message itself is still stored.
func (m *Manager) storeMedia(ctx context.Context, handle *SessionHandle, convID, msgID string, content Content) string {
	if m.objects == nil || !m.objects.Enabled() {
		return ""
	}

	dlCtx, cancel := context.WithTimeout(ctx, config.MediaFetchTimeout)
	defer cancel()

	data, err := handle.Client.Download(dlCtx, content.Media)
	if err != nil {
		logrus.Warnf("[MEDIA] session %s: downloading attachment for %s: %v", handle.SessionID, msgID, err)
		return ""
	}

	path := fmt.Sprintf("%s/%s/%s.%s", handle.OrgID, convID, msgID, utils.MediaExtension(content.MediaMime))
	url, err := m.objects.Upload(dlCtx, path, data, content.MediaMime)
	if err != nil {
		logrus.Warnf("[MEDIA] session %s: uploading attachment for %s: %v", handle.SessionID, msgID, err)
		return ""
	}
	return url
}
