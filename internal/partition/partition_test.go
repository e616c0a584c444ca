package partition

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/jaswdr/faker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittrance/vector/pkg/event"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func logWith(fields map[string]string) *event.Log {
	log := event.NewLog()
	for k, v := range fields {
		log.Insert(k, event.NewString(v))
	}
	return log
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		wantField bool
		wantKey   string
	}{
		{"no placeholder", "logs/app.log", false, ""},
		{"empty template", "", false, ""},
		{"single placeholder", "logs/{{host}}/app.log", true, "host"},
		{"placeholder only", "{{foo}}", true, "foo"},
		{"digit key is literal", "{{123}}", false, ""},
		{"digit inside key is literal", "{{a1}}", false, ""},
		{"empty braces", "{{}}", false, ""},
		{"unterminated", "{{host", false, ""},
		{"first of two", "{{foo}}/{{bar}}", true, "foo"},
		{"spaces are kept", "{{ host }}", true, " host "},
		{"dotted key", "{{kubernetes.pod}}", true, "kubernetes.pod"},
		{"non ascii key", "{{hôte}}", true, "hôte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Compile(tt.template)

			if !tt.wantField {
				static, ok := spec.(Static)
				require.True(t, ok, "expected Static, got %T", spec)
				assert.Equal(t, tt.template, string(static.Bytes))
				return
			}

			field, ok := spec.(Field)
			require.True(t, ok, "expected Field, got %T", spec)
			assert.Equal(t, tt.wantKey, field.Key)
			assert.Equal(t, tt.template, string(field.Template))
			assert.Equal(t, "{{"+tt.wantKey+"}}", field.Matcher.FindString(tt.template))
		})
	}
}

func TestCompile_InvalidUTF8KeyIsStatic(t *testing.T) {
	template := "{{ke\xffy}}"

	spec := Compile(template)

	static, ok := spec.(Static)
	require.True(t, ok, "expected Static, got %T", spec)
	assert.Equal(t, []byte(template), static.Bytes)
}

func TestCompile_MatcherIsLiteral(t *testing.T) {
	spec := Compile("{{a.b*c}}")

	field, ok := spec.(Field)
	require.True(t, ok)
	assert.True(t, field.Matcher.MatchString("{{a.b*c}}"))
	assert.False(t, field.Matcher.MatchString("{{aXbbbc}}"))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		template string
		fields   map[string]string
		want     string
		wantOK   bool
	}{
		{
			name:     "static",
			template: "logs/app.log",
			fields:   nil,
			want:     "logs/app.log",
			wantOK:   true,
		},
		{
			name:     "field substituted",
			template: "logs/{{host}}/app.log",
			fields:   map[string]string{"host": "web-1"},
			want:     "logs/web-1/app.log",
			wantOK:   true,
		},
		{
			name:     "placeholder only",
			template: "{{foo}}",
			fields:   map[string]string{"foo": "bar"},
			want:     "bar",
			wantOK:   true,
		},
		{
			name:     "repeated placeholder substituted everywhere",
			template: "{{env}}/{{env}}.log",
			fields:   map[string]string{"env": "prod"},
			want:     "prod/prod.log",
			wantOK:   true,
		},
		{
			name:     "second placeholder kept verbatim",
			template: "{{foo}}/{{bar}}",
			fields:   map[string]string{"foo": "a", "bar": "b"},
			want:     "a/{{bar}}",
			wantOK:   true,
		},
		{
			name:     "dollar in value is literal",
			template: "{{foo}}",
			fields:   map[string]string{"foo": "$1${key}"},
			want:     "$1${key}",
			wantOK:   true,
		},
		{
			name:     "empty value",
			template: "a{{foo}}b",
			fields:   map[string]string{"foo": ""},
			want:     "ab",
			wantOK:   true,
		},
		{
			name:     "missing field",
			template: "{{foo}}",
			fields:   map[string]string{"other": "x"},
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Compile(tt.template)

			got, ok := Resolve(logWith(tt.fields), spec, slog.New(slog.DiscardHandler))

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, string(got))
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestResolve_MissingFieldWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	_, ok := Resolve(event.NewLog(), Compile("{{host}}"), logger)

	require.False(t, ok)
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "event key does not exist on the event and the event will be dropped")
	assert.Contains(t, out, "key=host")
}

func TestResolve_NilLogger(t *testing.T) {
	_, ok := Resolve(event.NewLog(), Compile("{{host}}"), nil)
	assert.False(t, ok)
}

func TestResolve_NilSpecPanics(t *testing.T) {
	assert.Panics(t, func() {
		Resolve(event.NewLog(), nil, nil)
	})
}

func TestResolve_NonStringValues(t *testing.T) {
	log := event.NewLog()
	log.Insert("status", event.NewInteger(503))
	log.Insert("ok", event.NewBoolean(false))

	got, ok := Resolve(log, Compile("status={{status}}"), nil)
	require.True(t, ok)
	assert.Equal(t, "status=503", string(got))

	got, ok = Resolve(log, Compile("ok={{ok}}"), nil)
	require.True(t, ok)
	assert.Equal(t, "ok=false", string(got))
}

func TestResolve_StaticIsCopied(t *testing.T) {
	spec := Compile("logs/app.log")

	got, ok := Resolve(event.NewLog(), spec, nil)
	require.True(t, ok)
	got[0] = 'X'

	again, _ := Resolve(event.NewLog(), spec, nil)
	assert.Equal(t, "logs/app.log", string(again))
}

func TestResolve_FieldDoesNotMutateTemplate(t *testing.T) {
	spec := Compile("{{foo}}-suffix")

	first, _ := Resolve(logWith(map[string]string{"foo": "one"}), spec, nil)
	second, _ := Resolve(logWith(map[string]string{"foo": "two"}), spec, nil)

	assert.Equal(t, "one-suffix", string(first))
	assert.Equal(t, "two-suffix", string(second))
	assert.Equal(t, "{{foo}}-suffix", string(spec.(Field).Template))
}

func TestResolve_RandomValues(t *testing.T) {
	fake := faker.New()
	spec := Compile("{{foo}}")

	for i := 0; i < 100; i++ {
		value := fake.Lorem().Sentence(fake.IntBetween(1, 8))

		got, ok := Resolve(logWith(map[string]string{"foo": value}), spec, nil)

		require.True(t, ok)
		assert.Equal(t, value, string(got))
	}
}

func TestResolve_RandomStaticTemplates(t *testing.T) {
	fake := faker.New()

	for i := 0; i < 100; i++ {
		template := strings.ReplaceAll(fake.Internet().URL(), "{", "")

		got, ok := Resolve(event.NewLog(), Compile(template), nil)

		require.True(t, ok)
		assert.Equal(t, template, string(got))
	}
}

func TestResolve_Concurrent(t *testing.T) {
	spec := Compile("logs/{{host}}.log")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			got, ok := Resolve(logWith(map[string]string{"host": host}), spec, nil)
			assert.True(t, ok)
			assert.Equal(t, "logs/"+host+".log", string(got))
		}(strings.Repeat("h", i+1))
	}
	wg.Wait()
}

func BenchmarkResolve(b *testing.B) {
	spec := Compile("logs/{{host}}/app.log")
	log := logWith(map[string]string{"host": "web-1"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Resolve(log, spec, nil)
	}
}
