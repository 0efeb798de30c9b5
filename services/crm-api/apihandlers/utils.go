package apihandlers

import (
	"math/rand"
	"time"

	"github.com/ronanlefevre01/opticom-sub000/pkg/utils"
)

func (h *HttpEndpoints) isInstanceAllowed(instanceID string) bool {
	return utils.ContainsString(h.allowedInstanceIDs, instanceID)
}

// randomWait blurs response timing on failed logins.
func randomWait(minTimeSec int, maxTimeSec int) {
	time.Sleep(time.Duration(rand.Intn(maxTimeSec-minTimeSec)+minTimeSec) * time.Second)
}
