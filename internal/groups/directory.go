package groups

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/models"
)

// Sentinel errors returned by directory operations.
var (
	ErrAlreadyInGroup = errors.New("user already belongs to a group")
	ErrNotInGroup     = errors.New("user does not belong to a group")
	ErrNotOwner       = errors.New("user does not own the group")
	ErrUnknownCode    = errors.New("unknown invite code")
	ErrNoSpreadsheet  = errors.New("group has no spreadsheet bound")
)

// LeaveOutcome describes what happened when a user left their group.
type LeaveOutcome int

const (
	// LeaveNotInGroup means the user was not a member of any group.
	LeaveNotInGroup LeaveOutcome = iota
	// LeaveLeft means the user was removed and the group remains.
	LeaveLeft
	// LeaveGroupDeleted means the owner left and the whole group was removed.
	LeaveGroupDeleted
)

// codeAlphabet excludes visually ambiguous characters (0/O, 1/I/l).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	inviteCodeLength = 8
	authCodeLength   = 10
)

// Directory is the authority over group membership. Every mutation holds a
// single lock across the load-mutate-save cycle so concurrent updates cannot
// overwrite each other's changes.
type Directory struct {
	mu      sync.Mutex
	storage *Storage
	admins  map[int64]bool
	log     logging.Logger
}

// NewDirectory creates a directory persisted through storage. adminIDs are
// users who may mint authorisation codes and are implicitly authorised.
func NewDirectory(storage *Storage, adminIDs []int64, logger logging.Logger) *Directory {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Directory{storage: storage, admins: admins, log: logger}
}

func (d *Directory) update(fn func(doc *models.GroupDocument) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, err := d.storage.Load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return d.storage.Save(doc)
}

func (d *Directory) view(fn func(doc *models.GroupDocument)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, err := d.storage.Load()
	if err != nil {
		return err
	}
	fn(doc)
	return nil
}

// groupOf finds the group containing userID within an already loaded
// document.
func groupOf(doc *models.GroupDocument, userID int64) (string, *models.Group) {
	for id, group := range doc.Groups {
		if group.HasMember(userID) {
			return id, group
		}
	}
	return "", nil
}

// CreateGroup creates a new group owned by userID with a fresh invite code.
// A user belongs to at most one group, so creation fails for users who are
// already a member somewhere.
func (d *Directory) CreateGroup(userID int64, title string) (*models.Group, error) {
	var created *models.Group
	err := d.update(func(doc *models.GroupDocument) error {
		if _, existing := groupOf(doc, userID); existing != nil {
			return ErrAlreadyInGroup
		}
		code, err := randomCode(inviteCodeLength)
		if err != nil {
			return err
		}
		group := &models.Group{
			Title:      title,
			OwnerID:    userID,
			Members:    []int64{userID},
			InviteCode: code,
		}
		doc.Groups[uuid.NewString()] = group
		created = group
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.log.WithFields(
		logging.Field{Key: logging.FieldUser, Value: userID},
		logging.Field{Key: logging.FieldOperation, Value: "create_group"},
	).Info("Group created")
	return created, nil
}

// JoinByCode adds userID to the group holding the invite code. Joining the
// group the user already belongs to succeeds without change; belonging to a
// different group is an error because membership is exclusive.
func (d *Directory) JoinByCode(userID int64, code string) (*models.Group, error) {
	var joined *models.Group
	err := d.update(func(doc *models.GroupDocument) error {
		var target *models.Group
		for _, group := range doc.Groups {
			if group.InviteCode == code && code != "" {
				target = group
				break
			}
		}
		if target == nil {
			return ErrUnknownCode
		}
		if _, current := groupOf(doc, userID); current != nil && current != target {
			return ErrAlreadyInGroup
		}
		target.AddMember(userID)
		joined = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.log.WithFields(
		logging.Field{Key: logging.FieldUser, Value: userID},
		logging.Field{Key: logging.FieldOperation, Value: "join_group"},
	).Info("User joined group")
	return joined, nil
}

// Leave removes userID from their group. When the owner leaves, the whole
// group is deleted so orphaned groups cannot accumulate.
func (d *Directory) Leave(userID int64) (LeaveOutcome, error) {
	outcome := LeaveNotInGroup
	err := d.update(func(doc *models.GroupDocument) error {
		groupID, group := groupOf(doc, userID)
		if group == nil {
			return nil
		}
		if group.OwnerID == userID {
			delete(doc.Groups, groupID)
			outcome = LeaveGroupDeleted
			return nil
		}
		group.RemoveMember(userID)
		outcome = LeaveLeft
		return nil
	})
	if err != nil {
		return LeaveNotInGroup, err
	}
	if outcome != LeaveNotInGroup {
		d.log.WithFields(
			logging.Field{Key: logging.FieldUser, Value: userID},
			logging.Field{Key: logging.FieldOperation, Value: "leave_group"},
		).Info("User left group")
	}
	return outcome, nil
}

// RegenerateInviteCode replaces the invite code of the caller's group. Only
// the owner may rotate the code; previously shared codes stop working.
func (d *Directory) RegenerateInviteCode(userID int64) (string, error) {
	var newCode string
	err := d.update(func(doc *models.GroupDocument) error {
		_, group := groupOf(doc, userID)
		if group == nil {
			return ErrNotInGroup
		}
		if group.OwnerID != userID {
			return ErrNotOwner
		}
		code, err := randomCode(inviteCodeLength)
		if err != nil {
			return err
		}
		group.InviteCode = code
		newCode = code
		return nil
	})
	return newCode, err
}

// BindSpreadsheet attaches a spreadsheet to the caller's group, replacing any
// previous binding.
func (d *Directory) BindSpreadsheet(userID int64, spreadsheetID string) error {
	err := d.update(func(doc *models.GroupDocument) error {
		_, group := groupOf(doc, userID)
		if group == nil {
			return ErrNotInGroup
		}
		group.SpreadsheetID = spreadsheetID
		return nil
	})
	if err != nil {
		return err
	}
	d.log.WithFields(
		logging.Field{Key: logging.FieldUser, Value: userID},
		logging.Field{Key: logging.FieldSpreadsheet, Value: spreadsheetID},
	).Info("Spreadsheet bound to group")
	return nil
}

// GroupOf returns the group the user belongs to, or nil.
func (d *Directory) GroupOf(userID int64) (*models.Group, error) {
	var found *models.Group
	err := d.view(func(doc *models.GroupDocument) {
		_, found = groupOf(doc, userID)
	})
	return found, err
}

// SpreadsheetFor resolves the spreadsheet backing the user's group ledger.
func (d *Directory) SpreadsheetFor(userID int64) (string, error) {
	group, err := d.GroupOf(userID)
	if err != nil {
		return "", err
	}
	if group == nil {
		return "", ErrNotInGroup
	}
	if group.SpreadsheetID == "" {
		return "", ErrNoSpreadsheet
	}
	return group.SpreadsheetID, nil
}

// MintAuthCode creates a single-use authorisation code. Only admins may mint.
func (d *Directory) MintAuthCode(adminID int64) (string, error) {
	if !d.IsAdmin(adminID) {
		return "", fmt.Errorf("user %d may not mint authorisation codes", adminID)
	}
	var code string
	err := d.update(func(doc *models.GroupDocument) error {
		c, err := randomCode(authCodeLength)
		if err != nil {
			return err
		}
		doc.AuthCodes = append(doc.AuthCodes, c)
		code = c
		return nil
	})
	return code, err
}

// RedeemAuthCode consumes an authorisation code and marks the user as
// authorised. Each code works exactly once: it moves from the pending list to
// the authorised-users map, keyed by the code, so the document records which
// code every user claimed.
func (d *Directory) RedeemAuthCode(userID int64, code string) error {
	err := d.update(func(doc *models.GroupDocument) error {
		if code == "" {
			return ErrUnknownCode
		}
		if claimedBy, claimed := doc.AuthorisedUsers[code]; claimed {
			if claimedBy == userID {
				// Redeeming one's own claimed code again stays a success.
				return nil
			}
			return ErrUnknownCode
		}
		for i, c := range doc.AuthCodes {
			if c != code {
				continue
			}
			doc.AuthCodes = append(doc.AuthCodes[:i], doc.AuthCodes[i+1:]...)
			doc.AuthorisedUsers[code] = userID
			return nil
		}
		return ErrUnknownCode
	})
	if err != nil {
		return err
	}
	d.log.WithFields(
		logging.Field{Key: logging.FieldUser, Value: userID},
		logging.Field{Key: logging.FieldOperation, Value: "redeem_auth_code"},
	).Info("User authorised")
	return nil
}

// IsAuthorised reports whether the user may use the bot. Admins are always
// authorised.
func (d *Directory) IsAuthorised(userID int64) (bool, error) {
	if d.IsAdmin(userID) {
		return true, nil
	}
	authorised := false
	err := d.view(func(doc *models.GroupDocument) {
		for _, id := range doc.AuthorisedUsers {
			if id == userID {
				authorised = true
				return
			}
		}
	})
	return authorised, err
}

// IsAdmin reports whether the user is in the static admin list.
func (d *Directory) IsAdmin(userID int64) bool {
	return d.admins[userID]
}

// randomCode draws n characters from the unambiguous code alphabet.
func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
