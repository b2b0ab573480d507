package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/fallncrlss/comparty-bot/internal/features/rating"
)

type fakeTransport struct {
	sent      []string
	deleted   []int
	kicked    []int64
	deleteErr error
	kickErr   error
	admins    []string
}

func (f *fakeTransport) SendMessage(_ context.Context, _ int64, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeTransport) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeTransport) KickMember(_ context.Context, _ int64, userID int64) error {
	if f.kickErr != nil {
		return f.kickErr
	}
	f.kicked = append(f.kicked, userID)
	return nil
}

func (f *fakeTransport) AdminMentions(context.Context, int64) ([]string, error) {
	return f.admins, nil
}

type fakeReputation struct {
	flagged bool
	err     error
}

func (f *fakeReputation) Check(context.Context, int64) (bool, error) {
	return f.flagged, f.err
}

func testModeration(transport *fakeTransport, rep *fakeReputation) *Service {
	return NewService(transport, rep,
		NewLinkPolicy([]string{"bit.ly"}),
		NewNamePolicy([]string{"casino"}),
	)
}

func TestCheckMessageProhibitedLink(t *testing.T) {
	transport := &fakeTransport{}
	svc := testModeration(transport, &fakeReputation{})
	sender := rating.Identity{ID: 10, Username: "spammer"}

	verdict, err := svc.CheckMessage(context.Background(), 1, 77, sender, "жми https://bit.ly/abc")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Action != ActionKickMember || verdict.Reason != "link" {
		t.Fatalf("ожидали кик за ссылку, получили %+v", verdict)
	}
	if len(transport.deleted) != 1 || transport.deleted[0] != 77 {
		t.Fatalf("ожидали удаление сообщения 77, получили %v", transport.deleted)
	}
	if len(transport.kicked) != 1 || transport.kicked[0] != 10 {
		t.Fatalf("ожидали кик пользователя 10, получили %v", transport.kicked)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("ожидали одно объявление, получили %v", transport.sent)
	}
}

func TestCheckMessageDeleteFailureStopsEscalation(t *testing.T) {
	transport := &fakeTransport{deleteErr: errors.New("message is too old"), admins: []string{"@admin"}}
	svc := testModeration(transport, &fakeReputation{})

	verdict, err := svc.CheckMessage(context.Background(), 1, 77, rating.Identity{ID: 10}, "bit.ly/abc123")
	if err == nil {
		t.Fatal("ожидали ошибку удаления")
	}
	if verdict.Action != ActionDeleteMessage || !verdict.EscalationFailed {
		t.Fatalf("ожидали проваленную эскалацию на стадии удаления, получили %+v", verdict)
	}
	// До кика дело не дошло, администраторы уведомлены ровно один раз.
	if len(transport.kicked) != 0 {
		t.Fatalf("не ожидали кик после сбоя удаления: %v", transport.kicked)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("ожидали одно уведомление администраторов, получили %v", transport.sent)
	}
}

func TestCheckMessageKickFailureNotifiesAdmins(t *testing.T) {
	transport := &fakeTransport{kickErr: errors.New("not enough rights")}
	svc := testModeration(transport, &fakeReputation{})

	verdict, err := svc.CheckMessage(context.Background(), 1, 77, rating.Identity{ID: 10}, "bit.ly/abc123")
	if err == nil {
		t.Fatal("ожидали ошибку кика")
	}
	if verdict.Action != ActionKickMember || !verdict.EscalationFailed {
		t.Fatalf("ожидали проваленную эскалацию на стадии кика, получили %+v", verdict)
	}
	if len(transport.deleted) != 1 {
		t.Fatalf("сообщение должно быть удалено до сбоя кика: %v", transport.deleted)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("ожидали одно уведомление администраторов, получили %v", transport.sent)
	}
}

func TestCheckMessageCleanText(t *testing.T) {
	transport := &fakeTransport{}
	svc := testModeration(transport, &fakeReputation{})

	verdict, err := svc.CheckMessage(context.Background(), 1, 77, rating.Identity{ID: 10}, "обсуждаем релиз")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Action != ActionNone || len(transport.sent) != 0 || len(transport.deleted) != 0 {
		t.Fatalf("чистый текст не должен вызывать действий: %+v", verdict)
	}
}

func TestCheckMessageContentAdvisoryOnly(t *testing.T) {
	transport := &fakeTransport{}
	svc := testModeration(transport, &fakeReputation{})

	verdict, err := svc.CheckMessage(context.Background(), 1, 77, rating.Identity{ID: 10}, "ну ты и идиот")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Action != ActionNone {
		t.Fatalf("напоминание не должно принуждать: %+v", verdict)
	}
	if len(transport.sent) != 1 || transport.sent[0] != AdvisoryMessage {
		t.Fatalf("ожидали напоминание о правилах, получили %v", transport.sent)
	}
	if len(transport.deleted) != 0 || len(transport.kicked) != 0 {
		t.Fatal("напоминание не должно удалять или кикать")
	}
}

func TestCheckNewMemberFlaggedByReputation(t *testing.T) {
	transport := &fakeTransport{}
	svc := testModeration(transport, &fakeReputation{flagged: true})

	verdict, err := svc.CheckNewMember(context.Background(), 1, 55, rating.Identity{ID: 10})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Action != ActionKickMember || verdict.Reason != "cas" {
		t.Fatalf("ожидали кик по репутации, получили %+v", verdict)
	}
	if len(transport.kicked) != 1 || transport.kicked[0] != 10 {
		t.Fatalf("ожидали кик пользователя 10, получили %v", transport.kicked)
	}
	if len(transport.deleted) != 1 || transport.deleted[0] != 55 {
		t.Fatalf("ожидали удаление сообщения о вступлении, получили %v", transport.deleted)
	}
}

func TestCheckNewMemberProhibitedName(t *testing.T) {
	transport := &fakeTransport{}
	svc := testModeration(transport, &fakeReputation{})

	member := rating.Identity{ID: 10, FirstName: "Casino", LastName: "Bonus"}
	verdict, err := svc.CheckNewMember(context.Background(), 1, 55, member)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Action != ActionKickMember || verdict.Reason != "name" {
		t.Fatalf("ожидали кик за имя, получили %+v", verdict)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("ожидали объявление о кике, получили %v", transport.sent)
	}
}

func TestCheckNewMemberKickFailure(t *testing.T) {
	transport := &fakeTransport{kickErr: errors.New("not enough rights")}
	svc := testModeration(transport, &fakeReputation{flagged: true})

	verdict, err := svc.CheckNewMember(context.Background(), 1, 55, rating.Identity{ID: 10})
	if err == nil {
		t.Fatal("ожидали ошибку кика")
	}
	if !verdict.EscalationFailed {
		t.Fatalf("ожидали проваленную эскалацию, получили %+v", verdict)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("ожидали уведомление администраторов, получили %v", transport.sent)
	}
}

func TestCheckNewMemberClean(t *testing.T) {
	transport := &fakeTransport{}
	svc := testModeration(transport, &fakeReputation{})

	verdict, err := svc.CheckNewMember(context.Background(), 1, 55, rating.Identity{ID: 10, FirstName: "Иван"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if verdict.Action != ActionNone || len(transport.kicked) != 0 {
		t.Fatalf("чистый участник не должен наказываться: %+v", verdict)
	}
}
