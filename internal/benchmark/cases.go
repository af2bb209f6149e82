// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
)

// =============================================================================
// TEST CASE DEFINITIONS
// =============================================================================

// TestCase is a canned prompt used to demonstrate token accounting.
type TestCase struct {
	// Key is the short command-line name (short, medium, long, verylong, extreme).
	Key         string
	DisplayName string
	Description string
	// NominalTokens is the advertised approximate size.
	NominalTokens int
	Message       string
}

// EstimatedTokens returns the estimator's count for the message alone.
func (tc TestCase) EstimatedTokens() int {
	return tokens.Estimate(tc.Message)
}

// The canned test cases, smallest first.
var (
	Short = TestCase{
		Key:           "short",
		DisplayName:   "Короткий запрос",
		Description:   "~20 токенов",
		NominalTokens: 20,
		Message:       "Привет! Расскажи мне интересный факт о программировании.",
	}

	Medium = TestCase{
		Key:           "medium",
		DisplayName:   "Средний запрос",
		Description:   "~100 токенов",
		NominalTokens: 100,
		Message: dedent(`
			Я пишу консольный клиент на Go для работы с LLM через HTTP API.
			Хочу разобраться в нескольких вещах:
			1. Как правильно отменять запросы через context.Context?
			2. Как организовать повторные попытки с экспоненциальной задержкой?
			3. Какие библиотеки лучше использовать для TUI?
			Пожалуйста, дай развёрнутый ответ с примерами.`),
	}

	Long = TestCase{
		Key:           "long",
		DisplayName:   "Длинный запрос",
		Description:   "~500 токенов",
		NominalTokens: 500,
		Message: dedent(`
			Мне нужна помощь с производительностью терминального чат-клиента на Go.

			Контекст проекта:
			- Интерфейс построен на Bubble Tea, Bubbles и Lip Gloss
			- Ответы модели рендерятся в Markdown через Glamour
			- История чата может содержать сотни длинных сообщений
			- Настройки хранятся в SQLite, конфигурация в TOML
			- Подключены API Claude и HuggingFace Router

			Проблемы, с которыми столкнулись:
			1. Заметные задержки при прокрутке длинной истории
			2. Рост потребления памяти при повторном рендеринге Markdown
			3. Подвисания интерфейса, когда сеть отвечает медленно
			4. Мерцание при изменении размера окна терминала

			Текущая архитектура:
			- Модель Elm: Init, Update, View
			- Сессия чата с мьютексом и обратными вызовами
			- Отдельный HTTP-клиент с ограничением частоты запросов
			- Логирование через zap в файл

			Вопросы:
			1. Как кэшировать отрендеренный Markdown и когда его сбрасывать?
			2. Как правильно передавать результаты горутин в цикл Bubble Tea?
			3. Стоит ли ограничивать размер истории в viewport?
			4. Какие инструменты профилирования посоветуешь для Go?
			5. Как уменьшить число перерисовок при вводе текста?

			Пожалуйста, предоставь подробные рекомендации с примерами кода и best practices.`),
	}

	VeryLong = TestCase{
		Key:           "verylong",
		DisplayName:   "Очень длинный",
		Description:   "~1500 токенов",
		NominalTokens: 1500,
		Message:       veryLongMessage,
	}

	ExtremelyLong = TestCase{
		Key:           "extreme",
		DisplayName:   "Экстремально длинный",
		Description:   "~3000+ токенов (может превысить лимит)",
		NominalTokens: 3000,
		Message:       buildExtremelyLongMessage(),
	}
)

var veryLongMessage = dedent(`
	Я работаю над набором инструментов на Go для команды, которая активно использует LLM, и накопилось много архитектурных и технических вопросов.

	ОБЩИЙ КОНТЕКСТ ПРОЕКТА:
	Разрабатываем CLI и TUI для общения с несколькими моделями, учёта токенов и стоимости запросов. Целевые платформы: Linux, macOS и Windows.

	Технологический стек:
	- Go 1.24 с модулями
	- Cobra для команд и флагов
	- Bubble Tea, Bubbles и Lip Gloss для интерфейса
	- Glamour для Markdown
	- modernc.org/sqlite для локальных настроек
	- BurntSushi/toml для конфигурации
	- zap для структурированного логирования
	- testify и goleak для тестов

	АРХИТЕКТУРА:
	- Пакеты internal с чёткими границами ответственности
	- Интерфейсы на стороне потребителя
	- Контекст для отмены всех блокирующих операций
	- Сессия чата как конечный автомат с обратными вызовами

	ТЕКУЩИЕ ПРОБЛЕМЫ И ВОПРОСЫ:

	1. ПРОИЗВОДИТЕЛЬНОСТЬ:
	- Viewport с тысячами строк заметно тормозит
	- Перерисовка Markdown занимает до секунды
	- Утечки горутин при быстрой смене моделей
	- Большие аллокации при сборке истории для запроса

	2. РАБОТА С API:
	- Интегрированы Claude API и HuggingFace Router
	- Нужна система отслеживания токенов с лимитами
	- Требуется механизм повторных попыток при ошибках сети
	- Как отличать временные ошибки от постоянных?
	- Нужен ли клиентский rate limiter при нескольких пользователях?

	3. КОНКУРЕНТНОСТЬ:
	- Новый запрос должен отменять предыдущий
	- Устаревшие ответы не должны менять состояние
	- Очистка чата во время запроса
	- Как тестировать такие сценарии без гонок?

	4. БЕЗОПАСНОСТЬ:
	- Хранение API-ключей в конфигурации и переменных окружения
	- Ключи никогда не должны попадать в логи
	- Права доступа к файлам настроек
	- Проверка TLS и минимальная версия протокола

	5. ТЕСТИРОВАНИЕ:
	- Модульные тесты для оценки токенов
	- Тесты HTTP-клиентов через httptest
	- Проверка утечек горутин
	- Как организовать фейки для удалённых API?
	- Нужны ли golden-тесты для вывода интерфейса?

	6. CI/CD:
	- Сборка под все платформы
	- Публикация бинарников и контрольных сумм
	- Версионирование и changelog
	- Какие линтеры стоит включить обязательно?

	7. СПЕЦИФИЧНЫЕ ВОПРОСЫ ПО ПЛАТФОРМАМ:

	Linux:
	- Разные эмуляторы терминала и их возможности
	- Определение цветовой палитры и фона
	- Идентификатор машины для привязки устройства

	macOS:
	- Подпись и нотаризация бинарников
	- Поведение терминала при смене темы
	- Особенности путей к домашнему каталогу

	Windows:
	- Поддержка ANSI-последовательностей в старых консолях
	- Ширина символов кириллицы и эмодзи
	- Чтение MachineGuid из реестра

	8. МОНИТОРИНГ И АНАЛИТИКА:
	- Сбор ошибок и паник
	- Измерение времени ответа моделей
	- Статистика расхода токенов
	- Какие решения подходят для CLI-инструментов?

	КОНКРЕТНЫЕ ЗАПРОСЫ:
	1. Дай подробный план оптимизации производительности с приоритетами
	2. Предложи архитектурные улучшения для работы с AI API и токенами
	3. Как реализовать эффективное кэширование на всех уровнях?
	4. Покажи примеры кода для критичных компонентов
	5. Какие анти-паттерны встречаются в подобных проектах и как их избежать?
	6. Предложи метрики для мониторинга качества приложения
	7. Составь план перехода к production-ready состоянию

	Пожалуйста, предоставь максимально подробный ответ с конкретными рекомендациями, примерами кода и ссылками на документацию.`)

// buildExtremelyLongMessage appends ten numbered iterations of filler and a
// conclusion to the very long prompt.
func buildExtremelyLongMessage() string {
	var sb strings.Builder
	sb.WriteString(veryLongMessage)
	sb.WriteString("\n\nДОПОЛНИТЕЛЬНЫЙ КОНТЕКСТ:\n")
	for i := 1; i <= 10; i++ {
		if i > 1 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, dedent(`
			ИТЕРАЦИЯ %d:
			Повторяющийся контекст для увеличения размера запроса.
			Lorem ipsum dolor sit amet, consectetur adipiscing elit.
			Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.
			Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris.
			Duis aute irure dolor in reprehenderit in voluptate velit esse.
			Excepteur sint occaecat cupidatat non proident, sunt in culpa qui.

			Технические детали итерации %d:
			- Database queries optimization needed
			- Network layer refactoring required
			- UI performance improvements planned
			- Memory management review scheduled
			- Code quality metrics to be improved
			- Testing coverage needs expansion
			- Documentation requires updates
			- Security audit pending`), i, i)
	}
	sb.WriteString("\n\n")
	sb.WriteString(dedent(`
		ЗАКЛЮЧЕНИЕ:
		Этот запрос специально создан очень длинным для тестирования лимитов модели.
		Он может превысить максимально допустимое количество токенов контекста.
		Ожидаемое поведение: либо усечение, либо ошибка о превышении лимита.`))
	return sb.String()
}

// All returns the test cases, smallest first.
func All() []TestCase {
	return []TestCase{Short, Medium, Long, VeryLong, ExtremelyLong}
}

// Lookup finds a case by key (case-insensitive) or 1-based position.
func Lookup(name string) (TestCase, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	cases := All()
	if n, err := strconv.Atoi(name); err == nil {
		if n >= 1 && n <= len(cases) {
			return cases[n-1], true
		}
		return TestCase{}, false
	}
	for _, tc := range cases {
		if tc.Key == name {
			return tc, true
		}
	}
	return TestCase{}, false
}

// dedent strips a leading newline and the common leading tabs of every line.
func dedent(s string) string {
	s = strings.TrimPrefix(s, "\n")
	lines := strings.Split(s, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, "\t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return s
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, "\t")
		}
	}
	return strings.Join(lines, "\n")
}
