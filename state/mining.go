package state

import "github.com/pandodao/drm-wallet/core"

func SetMiningStatus(s core.MiningState, active bool, hashRate float64) core.MiningState {
	s.IsActive = active
	if hashRate < 0 {
		hashRate = 0
	}

	s.HashRate = hashRate
	return s
}

func RecordReward(s core.MiningState, rewardTxID string) core.MiningState {
	s.LastRewardTx = rewardTxID
	return s
}
