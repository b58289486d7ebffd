package utils

import "testing"

func TestFindPhoneNormalizesBrazilianFormat(t *testing.T) {
	data := map[string]interface{}{"Telefone": "(11) 98888-7777"}

	phone, ok := FindPhone(data)
	if !ok {
		t.Fatal("expected a phone to be found")
	}
	if phone != "11988887777" {
		t.Fatalf("expected normalized digits, got %q", phone)
	}
	if len(phone) < MinPhoneDigits {
		t.Fatalf("expected at least %d digits, got %d", MinPhoneDigits, len(phone))
	}
}

func TestFindPhoneSkipsShortNumbers(t *testing.T) {
	data := map[string]interface{}{"phone": "123"}

	if _, ok := FindPhone(data); ok {
		t.Fatal("expected short number to be skipped")
	}
}

func TestFindPhonePrefersWhatsappKey(t *testing.T) {
	data := map[string]interface{}{
		"Phone":    "(11) 91111-2222",
		"WhatsApp": "(21) 93333-4444",
	}

	phone, ok := FindPhone(data)
	if !ok {
		t.Fatal("expected a phone to be found")
	}
	if phone != "21933334444" {
		t.Fatalf("expected whatsapp field to win, got %q", phone)
	}
}

func TestFindPhoneFallsBackToPlausibleValues(t *testing.T) {
	data := map[string]interface{}{
		"Contato":  "+55 11 98888-7777",
		"Mensagem": "Quero saber mais sobre o produto",
	}

	phone, ok := FindPhone(data)
	if !ok {
		t.Fatal("expected value scan to find the phone")
	}
	if phone != "5511988887777" {
		t.Fatalf("expected normalized digits, got %q", phone)
	}
}

func TestFindPhoneIgnoresFreeText(t *testing.T) {
	data := map[string]interface{}{"Mensagem": "ligue entre 10 e 18 horas 1234567890"}

	if _, ok := FindPhone(data); ok {
		t.Fatal("expected free text not to be mistaken for a phone")
	}
}

func TestFindEmailPrefersEmailKey(t *testing.T) {
	data := map[string]interface{}{
		"E-mail":  "Ana@Example.COM",
		"Website": "contato@empresa.com",
	}

	email, ok := FindEmail(data)
	if !ok {
		t.Fatal("expected an email to be found")
	}
	if email != "ana@example.com" {
		t.Fatalf("expected lowercased email from email key, got %q", email)
	}
}

func TestFindEmailReturnsFalseWithoutCandidates(t *testing.T) {
	data := map[string]interface{}{"Nome": "Ana", "Telefone": "(11) 98888-7777"}

	if _, ok := FindEmail(data); ok {
		t.Fatal("expected no email to be found")
	}
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("Ana Clara Souza")
	if first != "Ana" || last != "Clara Souza" {
		t.Fatalf("unexpected split: %q / %q", first, last)
	}

	first, last = SplitName("Ana")
	if first != "Ana" || last != "" {
		t.Fatalf("unexpected single-name split: %q / %q", first, last)
	}
}
