package dto

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"TrenchGame/internal/battle/entity"
	"TrenchGame/internal/battle/geom"
)

func TestBullet_DormantEncodesNulls(t *testing.T) {
	b := &entity.Bullet{ID: 4, Dir: geom.Vec{X: 1}, Team: entity.TeamSquares, Impact: entity.Impact{Time: math.Inf(1)}}
	raw, err := json.Marshal(Bullet(b))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	for _, want := range []string{`"impactTime":null`, `"impactSoldierID":null`, `"team":"squares"`, `"direction":{"x":1,"y":0}`} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %s in %s", want, s)
		}
	}
}

func TestBullet_HitCarriesSoldierID(t *testing.T) {
	b := &entity.Bullet{ID: 4, Team: entity.TeamCircles, Impact: entity.Impact{Time: 2.5, Hit: true, SoldierID: 9, Disappear: true}}
	rec := Bullet(b)
	if rec.ImpactTime == nil || *rec.ImpactTime != 2.5 || rec.ImpactSoldierID == nil || *rec.ImpactSoldierID != 9 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestSoldier_UsesStatusForRank(t *testing.T) {
	raw, err := json.Marshal(Soldier(&entity.Soldier{ID: 1, Team: entity.TeamCircles, Rank: entity.RankGeneral, Health: 2}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"status":"general"`) || !strings.Contains(string(raw), `"alive":true`) {
		t.Fatalf("unexpected soldier json %s", raw)
	}
}

func TestSoundPtr_SilentIsNull(t *testing.T) {
	if SoundPtr(entity.SoundNone) != nil {
		t.Fatalf("silent sound should be nil")
	}
	if p := SoundPtr(entity.SoundBump); p == nil || *p != entity.SoundBump {
		t.Fatalf("bump sound lost")
	}
}
