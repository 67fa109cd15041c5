package dashboard

import (
	"encoding/json"

	"github.com/f1sherman/gphotos-sync/internal/syncer"
)

// Events adapts a Server to the syncer's event sink, broadcasting each sync
// event to connected dashboard clients.
type Events struct {
	server *Server
}

// NewEvents wraps a running server.
func NewEvents(server *Server) *Events {
	return &Events{server: server}
}

var _ syncer.Events = (*Events)(nil)

func (e *Events) ItemSynced(remoteID, path, fileName string) {
	e.send(MessageTypeItemSynced, ItemSyncedData{
		RemoteID: remoteID,
		Path:     path,
		FileName: fileName,
	})
}

func (e *Events) ItemFailed(remoteID, name string, err error) {
	e.send(MessageTypeItemFailed, ItemFailedData{
		RemoteID: remoteID,
		Name:     name,
		Error:    err.Error(),
	})
}

func (e *Events) RunComplete(stats syncer.RunStats) {
	e.send(MessageTypeRunComplete, RunCompleteData{
		Synced:  stats.Synced,
		Skipped: stats.Skipped,
		Failed:  stats.Failed,
	})
}

func (e *Events) send(msgType MessageType, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	e.server.Broadcast(Message{Type: msgType, Data: payload})
}
