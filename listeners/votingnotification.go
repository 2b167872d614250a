package listeners

import (
	"github.com/crypto-power/oraclevoting/libwallet"
)

// VotingNotificationListener satisfies the libwallet NotificationListener
// interface contract and forwards every change on a channel.
type VotingNotificationListener struct {
	VotingNotifChan chan *libwallet.Voting
}

func NewVotingNotificationListener() *VotingNotificationListener {
	return &VotingNotificationListener{
		VotingNotifChan: make(chan *libwallet.Voting, 4),
	}
}

func (vn *VotingNotificationListener) OnVotingChanged(v *libwallet.Voting) {
	vn.sendNotification(v)
}

func (vn *VotingNotificationListener) sendNotification(v *libwallet.Voting) {
	if v != nil {
		vn.VotingNotifChan <- v
	}
}
