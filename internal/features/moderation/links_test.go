package moderation

import "testing"

func TestFindURL(t *testing.T) {
	cases := map[string]bool{
		"зацени https://example.com/page": true,
		"www.example.org":                 true,
		"example.com и текст":             true,
		"просто текст без ссылок":         false,
		"":                                false,
	}
	for text, expected := range cases {
		if _, ok := FindURL(text); ok != expected {
			t.Fatalf("FindURL(%q): ожидали %v", text, expected)
		}
	}
}

func TestLinkPolicyStopwords(t *testing.T) {
	policy := NewLinkPolicy([]string{"bit.ly", "tinyurl"})

	link, ok := policy.Prohibited("переходи https://bit.ly/abc123")
	if !ok {
		t.Fatal("ожидали запрет ссылки со стоп-словом")
	}
	if link == "" {
		t.Fatal("ожидали найденную ссылку в вердикте")
	}

	if _, ok := policy.Prohibited("статья https://habr.com/ru/articles/1/"); ok {
		t.Fatal("не ожидали запрет обычной ссылки")
	}
}

func TestLinkPolicyShortLink(t *testing.T) {
	policy := NewLinkPolicy(nil)

	// Слишком короткий URL считается сокращателем даже без стоп-слова.
	if _, ok := policy.Prohibited("go.gl"); !ok {
		t.Fatal("ожидали запрет короткой ссылки")
	}

	if _, ok := policy.Prohibited("чистый текст"); ok {
		t.Fatal("не ожидали запрет текста без ссылок")
	}
}
