// Package idstest provides a small, self-consistent set of IDS tables and
// resources for tests.
package idstest

import (
	"strings"

	"github.com/zurustar/iescript/pkg/ids"
)

// Tables holds the fixture IDS files keyed by file name.
var Tables = map[string]string{
	"ACTION.IDS": `IDS V1.0
0 NoAction()
1 ActionOverride(O:Actor*,A:Action*)
3 Attack(O:Target*)
7 CreateCreature(S:NewObject*,P:Location*,I:Face*)
23 MoveToPoint(P:Point*)
30 SetGlobal(S:Name*,S:Area*,I:Value*)
61 StartTimer(I:ID*,I:Time*)
106 Shout(I:ID*)
109 IncrementGlobal(S:Name*,S:Area*,I:Value*)
113 ForceSpell(O:Target*,I:Spell*Spell)
115 SetGlobalTimer(S:Name*,S:Area*,I:Time*GTimes)
120 StartCutScene(S:CutScene*)
137 StartDialog(S:DialogFile*,O:Target*)
151 DisplayString(O:Object*,I:StrRef*)
169 DestroySelf()
200 PlaySound(S:Sound*)
200 PlaySound(S:Sound*,I:Channel*)
205 MoveBetweenAreas(S:Area*,P:Location*,I:Face*)
207 MoveToObject(O:Target*)
`,
	"TRIGGER.IDS": `IDS V1.0
0x0002 AttackedBy(O:Object*,I:Style*AStyle)
0x400A Alignment(O:Object*,I:Alignment*Align)
0x400F Global(S:Name*,S:Area*,I:Value*)
0x4017 Race(O:Object*,I:Race*Race)
0x4018 Class(O:Object*,I:Class*Class)
0x401C See(O:Object*)
0x4023 True()
0x4027 StateCheck(O:Object*,I:State*State)
0x4034 GlobalGT(S:Name*,S:Area*,I:Value*)
0x4040 GlobalTimerExact(S:Name*,S:Area*)
0x4041 GlobalTimerNotExpired(S:Name*,S:Area*)
0x4042 GlobalTimerExpired(S:Name*,S:Area*)
0x4063 InParty(O:Object*)
0x4068 NumTimesTalkedTo(I:Num*)
0x4089 OR(I:OrCount*)
0x40B6 GlobalTimerStarted(S:Name*,S:Area*)
0x40C0 AreaCheck(S:ResRef*)
0x40D0 Dead(S:Name*)
`,
	"OBJECT.IDS": `IDS V1.0
1 Myself
2 LeaderOf
11 LastAttackerOf
14 LastSeenBy
17 NearestEnemyOf
19 Nearest
21 Player1
22 Player2
`,
	"EA.IDS": `IDS V1.0
0 ANYONE
2 PC
3 FAMILIAR
4 ALLY
28 GOODCUTOFF
128 NEUTRAL
200 EVILCUTOFF
255 ENEMY
`,
	"GENERAL.IDS": `IDS V1.0
1 HUMANOID
2 ANIMAL
4 UNDEAD
255 MONSTER
`,
	"RACE.IDS": `IDS V1.0
1 HUMAN
2 ELF
4 DWARF
7 HALFORC
`,
	"CLASS.IDS": `IDS V1.0
1 MAGE
2 FIGHTER
3 CLERIC
4 THIEF
`,
	"SPECIFIC.IDS": `IDS V1.0
1 NORMAL
2 MAGIC
`,
	"GENDER.IDS": `IDS V1.0
1 MALE
2 FEMALE
`,
	"ALIGN.IDS": `IDS V1.0
0x11 LAWFUL_GOOD
0x22 NEUTRAL
0x33 CHAOTIC_EVIL
`,
	"ALIGNMNT.IDS": `IDS V1.0
0x11 LAWFUL_GOOD
0x22 NEUTRAL
0x33 CHAOTIC_EVIL
`,
	"FACTION.IDS": `IDS V1.0
1 DUSTMEN
2 GODSMEN
`,
	"TEAM.IDS": `IDS V1.0
1 TEAM_ONE
`,
	"SUBRACE.IDS": `IDS V1.0
1 DROW
`,
	"AVCLASS.IDS": `IDS V1.0
1 BARBARIAN
`,
	"CLASSMSK.IDS": `IDS V1.0
1 BARBARIAN_MASK
`,
	"STATE.IDS": `IDS V1.0
0x00000000 STATE_NORMAL
0x00000001 STATE_SLEEPING
0x00000002 STATE_BERSERK
0x00000004 STATE_PANIC
0x00000008 STATE_STUNNED
0x00000010 STATE_INVISIBLE
0x00000800 STATE_DEAD
`,
	"SPELL.IDS": `IDS V1.0
1101 CLERIC_BLESS
2112 WIZARD_MAGIC_MISSILE
`,
	"GTIMES.IDS": `IDS V1.0
7 ONE_ROUND
300 ONE_DAY
`,
	"ASTYLE.IDS": `IDS V1.0
1 MELEE
2 RANGED
`,
}

// Snapshot parses the fixture tables.
func Snapshot() *ids.Snapshot {
	var tables []*ids.Table
	for name, text := range Tables {
		t, err := ids.ParseTable(name, strings.NewReader(text))
		if err != nil {
			panic(err)
		}
		tables = append(tables, t)
	}
	return ids.NewSnapshot(tables...)
}

// Resources is an in-memory ids.Resources.
type Resources struct {
	Files   map[string]bool
	Strings map[int64]string
	Titles  map[string]string
	Names   map[string]bool // nil disables script-name checks
}

// NewResources returns the fixture resources.
func NewResources() *Resources {
	return &Resources{
		Files: map[string]bool{
			"AR0602.ARE":  true,
			"BG0100.ARE":  true,
			"BD0010A.ARE": true,
			"IMOEN.CRE":   true,
			"MYSOUND.WAV": true,
			"CUT01.BCS":   true,
			"IMOEN.DLG":   true,
		},
		Strings: map[int64]string{
			1234: "Hello there",
			42:   "The answer",
		},
		Titles: map[string]string{
			"IMOEN.CRE": "Imoen",
		},
	}
}

func (r *Resources) Exists(name string) bool {
	return r.Files[strings.ToUpper(name)]
}

func (r *Resources) StringRef(index int64) (string, bool) {
	s, ok := r.Strings[index]
	return s, ok
}

func (r *Resources) ResourceTitle(name string) (string, bool) {
	s, ok := r.Titles[strings.ToUpper(name)]
	return s, ok
}

func (r *Resources) ScriptNameKnown(name string) (bool, bool) {
	if r.Names == nil {
		return false, false
	}
	return r.Names[strings.ToUpper(name)], true
}

// Resolver returns a Service over the fixture tables and resources.
func Resolver() *ids.Service {
	return ids.NewService(ids.NewRegistry(Snapshot()), NewResources())
}
