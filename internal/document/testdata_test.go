package document

const hexletPage = `<!DOCTYPE html>
<html lang="ru">
<head>
  <meta charset="utf-8">
  <title>Курсы по программированию Хекслет</title>
  <link rel="stylesheet" media="all" href="https://cdn2.hexlet.io/assets/menu.css">
  <link rel="stylesheet" media="all" href="/assets/application.css">
  <link href="/courses" rel="canonical">
</head>
<body>
  <img src="/assets/professions/php.png" alt="Иконка профессии PHP-программист">
  <img src="data:image/png;base64,iVBORw0KGgo=" alt="inline">
  <img src="   " alt="blank">
  <h3>Как мы учим</h3>
  <script src="https://js.stripe.com/v3/"></script>
  <script src="https://ru.hexlet.io/packs/js/runtime.js"></script>
  <script src="//ru.hexlet.io/packs/js/app.js"></script>
  <script src="//cdn.example.com/x.js"></script>
  <script>console.log("inline")</script>
</body>
</html>
`
